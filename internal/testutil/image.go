package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/bargo"
)

// NewBlankImage returns an all-white canvas with no symbol on it.
func NewBlankImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// NewQRImage renders text as a square QR symbol of the given edge
// length.
func NewQRImage(text string, size int) (image.Image, error) {
	img, err := bargo.EncodeImage(text, &bargo.EncodeOptions{
		Format: bargo.FormatQRCode,
		Width:  size,
		Height: size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render %q: %w", text, err)
	}
	return img, nil
}

// NewSymbolPairImage draws two QR symbols side by side on one canvas,
// with enough quiet zone between them for a multi scan to separate
// the neighbors.
func NewSymbolPairImage(textLeft, textRight string) (image.Image, error) {
	left, err := NewQRImage(textLeft, 150)
	if err != nil {
		return nil, err
	}
	right, err := NewQRImage(textRight, 150)
	if err != nil {
		return nil, err
	}

	canvas := NewBlankImage(340, 170)
	draw.Draw(canvas, image.Rect(10, 10, 160, 160), left, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(180, 10, 330, 160), right, image.Point{}, draw.Src)
	return canvas, nil
}

// SavePNG writes an image to the given path as PNG, creating parent
// directories as needed.
func SavePNG(img image.Image, path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.Create(path) //nolint:gosec // G304: controlled test path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(file, img); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}
