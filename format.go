package bargo

import (
	"fmt"
	"strings"
)

// Format identifies a barcode symbology. The zero value is the empty
// string, which is not a valid format.
type Format string

// Symbologies known to the engine. Not every format can be both read and
// written; see SupportedFormats for per-format capabilities.
const (
	FormatAztec           Format = "AZTEC"
	FormatCodabar         Format = "CODABAR"
	FormatCode39          Format = "CODE_39"
	FormatCode93          Format = "CODE_93"
	FormatCode128         Format = "CODE_128"
	FormatDataMatrix      Format = "DATA_MATRIX"
	FormatEAN8            Format = "EAN_8"
	FormatEAN13           Format = "EAN_13"
	FormatITF             Format = "ITF"
	FormatMaxiCode        Format = "MAXICODE"
	FormatPDF417          Format = "PDF_417"
	FormatQRCode          Format = "QR_CODE"
	FormatRSS14           Format = "RSS_14"
	FormatRSSExpanded     Format = "RSS_EXPANDED"
	FormatUPCA            Format = "UPC_A"
	FormatUPCE            Format = "UPC_E"
	FormatUPCEANExtension Format = "UPC_EAN_EXTENSION"
)

// allFormats lists every known symbology in a stable order.
var allFormats = []Format{
	FormatAztec,
	FormatCodabar,
	FormatCode39,
	FormatCode93,
	FormatCode128,
	FormatDataMatrix,
	FormatEAN8,
	FormatEAN13,
	FormatITF,
	FormatMaxiCode,
	FormatPDF417,
	FormatQRCode,
	FormatRSS14,
	FormatRSSExpanded,
	FormatUPCA,
	FormatUPCE,
	FormatUPCEANExtension,
}

// String returns the canonical name of the format, e.g. "QR_CODE".
func (f Format) String() string {
	return string(f)
}

// Valid reports whether f is one of the known symbologies.
func (f Format) Valid() bool {
	for _, k := range allFormats {
		if f == k {
			return true
		}
	}
	return false
}

// ParseFormat resolves a format name to a Format. Matching is
// case-insensitive and tolerant of separator style, so "qr", "qr-code",
// "QRCode" and "QR_CODE" all resolve to FormatQRCode.
func ParseFormat(name string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)

	switch key {
	case "aztec":
		return FormatAztec, nil
	case "codabar":
		return FormatCodabar, nil
	case "code39":
		return FormatCode39, nil
	case "code93":
		return FormatCode93, nil
	case "code128":
		return FormatCode128, nil
	case "datamatrix":
		return FormatDataMatrix, nil
	case "ean8":
		return FormatEAN8, nil
	case "ean13":
		return FormatEAN13, nil
	case "itf", "itf14", "interleaved2of5":
		return FormatITF, nil
	case "maxicode":
		return FormatMaxiCode, nil
	case "pdf417":
		return FormatPDF417, nil
	case "qr", "qrcode":
		return FormatQRCode, nil
	case "rss14", "databar":
		return FormatRSS14, nil
	case "rssexpanded", "databarexpanded":
		return FormatRSSExpanded, nil
	case "upca":
		return FormatUPCA, nil
	case "upce":
		return FormatUPCE, nil
	case "upceanextension", "upcean":
		return FormatUPCEANExtension, nil
	default:
		return "", fmt.Errorf("unknown barcode format %q", name)
	}
}

// ParseFormats parses a comma-separated list of format names.
func ParseFormats(list string) ([]Format, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	formats := make([]Format, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		f, err := ParseFormat(p)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// FormatInfo describes what the engine can do with a symbology.
type FormatInfo struct {
	Format    Format `json:"format"`
	CanDecode bool   `json:"can_decode"`
	CanEncode bool   `json:"can_encode"`
}

// SupportedFormats lists every known symbology together with its decode
// and encode capability. The order is stable across calls.
func SupportedFormats() []FormatInfo {
	infos := make([]FormatInfo, 0, len(allFormats))
	for _, f := range allFormats {
		ef := formatToEngine(f)
		infos = append(infos, FormatInfo{
			Format:    f,
			CanDecode: engineCanDecode(ef),
			CanEncode: engineCanEncode(ef),
		})
	}
	return infos
}
