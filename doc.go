// Package bargo reads and writes barcodes.
//
// Decoding accepts a file path, a raw base64 payload or a data URL and
// answers with structured results: Decode reports at most one symbol
// (nil when the image holds none), DecodeAll reports every symbol and
// returns an empty slice when the image holds none. Encoding renders
// text into barcode image bytes with Encode, optionally persisting them
// to a file in the same call.
//
// All entry points are stateless and safe for concurrent use. Failures
// carry a stable classification matched with errors.Is against
// ErrInput, ErrOptions, ErrRecognition, ErrGeneration and ErrIO; an
// image without a barcode is a result, not an error.
package bargo
