// Package imgio decodes and encodes the raster image formats the
// barcode pipeline accepts, and sniffs formats from magic bytes.
package imgio

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	_ "image/gif"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format names an image codec for encoder output.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// Error describes a failed image operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("image %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ParseFormat resolves an output format name. Empty selects JPEG, the
// historical default of the encode pipeline.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "jpg", "jpeg":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tif", "tiff":
		return TIFF, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", name)
	}
}

// Ext returns the file extension for the format, with leading dot.
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// MIMEType returns the media type for the format.
func (f Format) MIMEType() string {
	return "image/" + string(f)
}

// Sniff identifies the image codec from leading magic bytes. It covers
// the formats Decode accepts; ok is false for anything else.
func Sniff(data []byte) (format string, ok bool) {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "jpeg", true
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "png", true
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "gif", true
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return "bmp", true
	case len(data) >= 4 && (bytes.Equal(data[:4], []byte("II*\x00")) || bytes.Equal(data[:4], []byte("MM\x00*"))):
		return "tiff", true
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp", true
	default:
		return "", false
	}
}

// Decode parses image bytes into pixels, returning the detected codec
// name alongside the image.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &Error{Op: "decode", Err: err}
	}
	return img, format, nil
}

// Encode renders pixels into the given codec. quality applies to JPEG
// only and must be in 1..100.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case PNG:
		err = png.Encode(&buf, img)
	case BMP:
		err = bmp.Encode(&buf, img)
	case TIFF:
		err = tiff.Encode(&buf, img, nil)
	default:
		err = fmt.Errorf("unsupported image format %q", string(format))
	}
	if err != nil {
		return nil, &Error{Op: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

// WriteFile persists encoded image bytes to path.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return &Error{Op: "write", Err: err}
	}
	return nil
}
