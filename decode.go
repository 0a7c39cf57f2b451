package bargo

import (
	"image"

	"github.com/MeKo-Tech/bargo/internal/engine"
	"github.com/MeKo-Tech/bargo/internal/imgio"
	"github.com/MeKo-Tech/bargo/internal/input"
)

// Decode scans the image referred to by input for a single barcode.
//
// input is interpreted as a data URL, a raw base64 image payload, or a
// file path, in that order: anything starting with "data:" is a data
// URL, a string that decodes as base64 into bytes with a known image
// magic number is a base64 payload, and everything else is a path.
//
// The result is nil (with a nil error) when the image contains no
// barcode; that is an answer, not a failure. opts may be nil.
func Decode(in string, opts *DecodeOptions) (*Result, error) {
	const op = "decode"
	img, err := resolveImage(op, in)
	if err != nil {
		return nil, err
	}
	return decodeImage(op, img, opts)
}

// DecodeAll scans the image referred to by input for every barcode it
// contains. The slice is empty, never nil, when nothing is found.
// Input handling matches Decode. opts may be nil.
func DecodeAll(in string, opts *DecodeOptions) ([]Result, error) {
	const op = "decode"
	img, err := resolveImage(op, in)
	if err != nil {
		return nil, err
	}
	return decodeAllImage(op, img, opts)
}

// DecodeBytes scans raw image bytes for a single barcode. Result
// semantics match Decode.
func DecodeBytes(data []byte, opts *DecodeOptions) (*Result, error) {
	const op = "decode"
	img, err := parseImage(op, data)
	if err != nil {
		return nil, err
	}
	return decodeImage(op, img, opts)
}

// DecodeAllBytes scans raw image bytes for every barcode. Result
// semantics match DecodeAll.
func DecodeAllBytes(data []byte, opts *DecodeOptions) ([]Result, error) {
	const op = "decode"
	img, err := parseImage(op, data)
	if err != nil {
		return nil, err
	}
	return decodeAllImage(op, img, opts)
}

// DecodeImage scans already decoded pixels for a single barcode.
// Result semantics match Decode.
func DecodeImage(img image.Image, opts *DecodeOptions) (*Result, error) {
	return decodeImage("decode", img, opts)
}

// DecodeAllImage scans already decoded pixels for every barcode.
// Result semantics match DecodeAll.
func DecodeAllImage(img image.Image, opts *DecodeOptions) ([]Result, error) {
	return decodeAllImage("decode", img, opts)
}

func decodeImage(op string, img image.Image, opts *DecodeOptions) (*Result, error) {
	results, err := runEngine(op, img, opts, false)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	r := results[0]
	return &r, nil
}

func decodeAllImage(op string, img image.Image, opts *DecodeOptions) ([]Result, error) {
	return runEngine(op, img, opts, true)
}

func runEngine(op string, img image.Image, opts *DecodeOptions, multi bool) ([]Result, error) {
	norm, err := normalizeDecodeOptions(op, opts)
	if err != nil {
		return nil, err
	}
	found, err := engine.Recognize(img, decodeOptionsToEngine(norm, multi))
	if err != nil {
		return nil, newError(KindRecognition, op, err)
	}
	return resultsFromEngine(found), nil
}

// resolveImage obtains and parses the image an input string refers to.
func resolveImage(op, in string) (image.Image, error) {
	data, _, err := input.Resolve(in)
	if err != nil {
		return nil, newError(KindInput, op, err)
	}
	return parseImage(op, data)
}

// parseImage decodes image bytes; undecodable bytes are an input
// problem, not a recognition one.
func parseImage(op string, data []byte) (image.Image, error) {
	img, _, err := imgio.Decode(data)
	if err != nil {
		return nil, newError(KindInput, op, err)
	}
	return img, nil
}
