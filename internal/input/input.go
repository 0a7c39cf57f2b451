// Package input turns the decode entry point's string input into image
// bytes. An input is a data URL, a raw base64 payload, or a file path,
// classified in that order.
package input

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MeKo-Tech/bargo/internal/imgio"
)

// Kind is the resolved interpretation of an input string.
type Kind int

const (
	// KindFilePath reads the input as a filesystem path.
	KindFilePath Kind = iota

	// KindBase64 decodes the input as a raw base64 image payload.
	KindBase64

	// KindDataURL decodes the payload of a data: URL.
	KindDataURL
)

func (k Kind) String() string {
	switch k {
	case KindBase64:
		return "base64"
	case KindDataURL:
		return "data-url"
	default:
		return "file-path"
	}
}

const dataURLPrefix = "data:"

// Classify determines how an input string will be interpreted, without
// touching the filesystem. A string is base64 only when it both decodes
// and yields bytes with a known image magic number; everything that is
// not a data URL or base64 is a file path, whether or not it exists.
func Classify(s string) Kind {
	if strings.HasPrefix(s, dataURLPrefix) {
		return KindDataURL
	}
	if data, ok := decodeBase64(s); ok {
		if _, ok := imgio.Sniff(data); ok {
			return KindBase64
		}
	}
	return KindFilePath
}

// Resolve obtains the raw image bytes an input string refers to, along
// with the interpretation that produced them.
func Resolve(s string) ([]byte, Kind, error) {
	if s == "" {
		return nil, KindFilePath, errors.New("empty input")
	}

	kind := Classify(s)
	switch kind {
	case KindDataURL:
		data, err := decodeDataURL(s)
		if err != nil {
			return nil, kind, err
		}
		return data, kind, nil

	case KindBase64:
		data, _ := decodeBase64(s)
		return data, kind, nil

	default:
		data, err := os.ReadFile(s) //nolint:gosec // G304: reading a caller-provided image path is the point
		if err != nil {
			return nil, kind, fmt.Errorf("read %s: %w", s, err)
		}
		return data, kind, nil
	}
}

// decodeDataURL extracts and decodes the payload of a base64 data URL.
// Only base64-encoded data URLs are supported.
func decodeDataURL(s string) ([]byte, error) {
	body := s[len(dataURLPrefix):]
	comma := strings.Index(body, ",")
	if comma < 0 {
		return nil, errors.New("malformed data URL: missing comma")
	}
	meta, payload := body[:comma], body[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("malformed data URL: missing ;base64 marker")
	}
	data, ok := decodeBase64(payload)
	if !ok {
		return nil, errors.New("malformed data URL: invalid base64 payload")
	}
	return data, nil
}

// decodeBase64 decodes a standard-alphabet base64 string, accepting
// both padded and unpadded payloads. Surrounding and embedded ASCII
// whitespace is ignored, matching what lenient producers emit.
func decodeBase64(s string) ([]byte, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return nil, false
	}
	if data, err := base64.StdEncoding.DecodeString(cleaned); err == nil {
		return data, true
	}
	if data, err := base64.RawStdEncoding.DecodeString(cleaned); err == nil {
		return data, true
	}
	return nil, false
}
