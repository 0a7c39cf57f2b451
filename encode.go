package bargo

import (
	"errors"
	"image"

	"github.com/MeKo-Tech/bargo/internal/engine"
	"github.com/MeKo-Tech/bargo/internal/imgio"
)

// Encode renders text as a barcode image and returns the encoded image
// bytes. With opts.OutputFile set the same bytes are also written to
// that path; the return value does not change. opts may be nil, which
// renders a 200x200 QR code as JPEG.
func Encode(text string, opts *EncodeOptions) ([]byte, error) {
	const op = "encode"
	norm, img, err := generate(op, text, opts)
	if err != nil {
		return nil, err
	}

	data, err := imgio.Encode(img, imgio.Format(norm.ImageFormat), norm.JPEGQuality)
	if err != nil {
		return nil, newError(KindGeneration, op, err)
	}
	if norm.OutputFile != "" {
		if err := imgio.WriteFile(norm.OutputFile, data); err != nil {
			return nil, newError(KindIO, op, err)
		}
	}
	return data, nil
}

// EncodeImage renders text as a barcode and returns the pixels instead
// of encoded bytes. OutputFile and the image format options are
// ignored. opts may be nil.
func EncodeImage(text string, opts *EncodeOptions) (image.Image, error) {
	_, img, err := generate("encode", text, opts)
	return img, err
}

func generate(op, text string, opts *EncodeOptions) (EncodeOptions, image.Image, error) {
	norm, err := normalizeEncodeOptions(op, opts)
	if err != nil {
		return norm, nil, err
	}
	if text == "" {
		return norm, nil, newError(KindGeneration, op, errors.New("no content to encode"))
	}
	img, err := engine.Generate(text, encodeOptionsToEngine(norm))
	if err != nil {
		if errors.Is(err, engine.ErrUnsupportedFormat) {
			return norm, nil, newOptionsError(op, "format", err)
		}
		return norm, nil, newError(KindGeneration, op, err)
	}
	return norm, img, nil
}
