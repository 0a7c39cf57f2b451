package bargo

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/MeKo-Tech/bargo/internal/imgio"
)

// DecodeOptions tunes barcode recognition. The zero value asks for a
// normal-effort scan across all supported symbologies.
type DecodeOptions struct {
	// TryHarder spends more time per image: additional scan passes and
	// rotated retries. Off by default.
	TryHarder bool

	// Formats restricts recognition to the given symbologies. Empty
	// means all readable formats.
	Formats []Format

	// PureBarcode declares that the image is a clean, axis-aligned
	// rendering of a single symbol rather than a photograph.
	PureBarcode bool

	// CharacterSet overrides the charset used to interpret raw payload
	// bytes, by IANA name (for example "ISO-8859-1").
	CharacterSet string

	// AllowedLengths restricts variable-length 1D formats to the given
	// content lengths.
	AllowedLengths []int

	// AssumeCode39CheckDigit treats the last Code 39 character as a
	// check digit.
	AssumeCode39CheckDigit bool

	// AssumeGS1 interprets FNC1 content as GS1 formatted data.
	AssumeGS1 bool

	// ReturnCodabarStartEnd keeps the Codabar start and stop characters
	// in the decoded text.
	ReturnCodabarStartEnd bool

	// AllowedEANExtensions restricts which EAN extension lengths (2, 5)
	// are accepted alongside the main symbol.
	AllowedEANExtensions []int

	// AlsoInverted retries with inverted luminance, for light-on-dark
	// symbols.
	AlsoInverted bool
}

// EncodeOptions tunes barcode generation. The zero value renders a
// 200x200 QR code as JPEG bytes.
type EncodeOptions struct {
	// Format selects the symbology. Defaults to QR_CODE.
	Format Format

	// Width and Height give the output size in pixels. Width defaults
	// to 200; Height defaults to Width.
	Width  int
	Height int

	// Margin sets the quiet zone in modules. Nil keeps the engine
	// default for the symbology.
	Margin *int

	// ErrorCorrection selects the EC level where the symbology has one,
	// e.g. "L", "M", "Q" or "H" for QR codes.
	ErrorCorrection string

	// CharacterSet selects the charset used to encode the content, by
	// IANA name.
	CharacterSet string

	// DataMatrixCompact enables the compact Data Matrix encoding.
	DataMatrixCompact bool

	// AztecLayers forces the Aztec layer count: 1..32 for full symbols,
	// -1..-4 for compact ones, 0 for automatic.
	AztecLayers int

	// QRVersion forces a QR version (1..40). Zero picks the smallest
	// version that fits.
	QRVersion int

	// QRMaskPattern forces a QR mask pattern (0..7). Nil lets the
	// encoder choose.
	QRMaskPattern *int

	// GS1Format marks the content as GS1 formatted.
	GS1Format bool

	// ForceCodeSet forces a Code 128 code set ("A", "B" or "C").
	ForceCodeSet string

	// ForceC40 forces the Data Matrix C40 encoding mode.
	ForceC40 bool

	// Code128Compact enables the compact Code 128 encoding.
	Code128Compact bool

	// ImageFormat selects the output image codec: "jpeg" (default),
	// "png", "bmp" or "tiff".
	ImageFormat string

	// JPEGQuality sets the JPEG encoder quality (1..100, default 90).
	// Ignored for other image formats.
	JPEGQuality int

	// OutputFile additionally writes the encoded image to this path.
	// The image bytes are returned either way.
	OutputFile string
}

// defaultEncodeSize is the rendered edge length used when no explicit
// size is requested.
const defaultEncodeSize = 200

// defaultJPEGQuality is the JPEG encoder quality used when none is
// requested.
const defaultJPEGQuality = 90

// normalizeDecodeOptions applies defaults and validates field values.
// A nil receiver is treated as the zero value.
func normalizeDecodeOptions(op string, opts *DecodeOptions) (DecodeOptions, error) {
	var norm DecodeOptions
	if opts != nil {
		norm = *opts
	}

	for _, f := range norm.Formats {
		if !f.Valid() {
			return norm, newOptionsError(op, "formats", fmt.Errorf("unknown barcode format %q", string(f)))
		}
	}
	if err := validateCharacterSet(norm.CharacterSet); err != nil {
		return norm, newOptionsError(op, "characterSet", err)
	}
	for _, n := range norm.AllowedLengths {
		if n <= 0 {
			return norm, newOptionsError(op, "allowedLengths", fmt.Errorf("length %d is not positive", n))
		}
	}
	for _, n := range norm.AllowedEANExtensions {
		if n != 2 && n != 5 {
			return norm, newOptionsError(op, "allowedEanExtensions", fmt.Errorf("extension length %d is not 2 or 5", n))
		}
	}
	return norm, nil
}

// normalizeEncodeOptions applies defaults and validates field values.
// A nil receiver is treated as the zero value.
func normalizeEncodeOptions(op string, opts *EncodeOptions) (EncodeOptions, error) {
	var norm EncodeOptions
	if opts != nil {
		norm = *opts
	}

	if norm.Format == "" {
		norm.Format = FormatQRCode
	}
	if !norm.Format.Valid() {
		return norm, newOptionsError(op, "format", fmt.Errorf("unknown barcode format %q", string(norm.Format)))
	}
	if !engineCanEncode(formatToEngine(norm.Format)) {
		return norm, newOptionsError(op, "format", fmt.Errorf("format %s cannot be written", norm.Format))
	}

	if norm.Width < 0 {
		return norm, newOptionsError(op, "width", fmt.Errorf("width %d is not positive", norm.Width))
	}
	if norm.Height < 0 {
		return norm, newOptionsError(op, "height", fmt.Errorf("height %d is not positive", norm.Height))
	}
	if norm.Width == 0 {
		norm.Width = defaultEncodeSize
	}
	if norm.Height == 0 {
		norm.Height = norm.Width
	}
	if norm.Margin != nil && *norm.Margin < 0 {
		return norm, newOptionsError(op, "margin", fmt.Errorf("margin %d is negative", *norm.Margin))
	}

	if norm.Format == FormatQRCode && norm.ErrorCorrection != "" {
		norm.ErrorCorrection = strings.ToUpper(norm.ErrorCorrection)
		switch norm.ErrorCorrection {
		case "L", "M", "Q", "H":
		default:
			return norm, newOptionsError(op, "errorCorrection",
				fmt.Errorf("QR error correction %q is not one of L, M, Q, H", norm.ErrorCorrection))
		}
	}
	if err := validateCharacterSet(norm.CharacterSet); err != nil {
		return norm, newOptionsError(op, "characterSet", err)
	}
	if norm.QRVersion < 0 || norm.QRVersion > 40 {
		return norm, newOptionsError(op, "qrVersion", fmt.Errorf("QR version %d is not in 1..40", norm.QRVersion))
	}
	if norm.QRMaskPattern != nil && (*norm.QRMaskPattern < 0 || *norm.QRMaskPattern > 7) {
		return norm, newOptionsError(op, "qrMaskPattern",
			fmt.Errorf("QR mask pattern %d is not in 0..7", *norm.QRMaskPattern))
	}
	if norm.AztecLayers < -4 || norm.AztecLayers > 32 {
		return norm, newOptionsError(op, "aztecLayers",
			fmt.Errorf("aztec layer count %d is not in -4..32", norm.AztecLayers))
	}
	if norm.ForceCodeSet != "" {
		norm.ForceCodeSet = strings.ToUpper(norm.ForceCodeSet)
		switch norm.ForceCodeSet {
		case "A", "B", "C":
		default:
			return norm, newOptionsError(op, "forceCodeSet",
				fmt.Errorf("code set %q is not one of A, B, C", norm.ForceCodeSet))
		}
	}

	imageFormat, err := imgio.ParseFormat(norm.ImageFormat)
	if err != nil {
		return norm, newOptionsError(op, "imageFormat", err)
	}
	norm.ImageFormat = string(imageFormat)
	if norm.JPEGQuality < 0 || norm.JPEGQuality > 100 {
		return norm, newOptionsError(op, "jpegQuality",
			fmt.Errorf("JPEG quality %d is not in 1..100", norm.JPEGQuality))
	}
	if norm.JPEGQuality == 0 {
		norm.JPEGQuality = defaultJPEGQuality
	}
	return norm, nil
}

// validateCharacterSet checks a charset name against the IANA registry.
// Empty means the engine default and is always valid.
func validateCharacterSet(name string) error {
	if name == "" {
		return nil
	}
	if _, err := ianaindex.IANA.Encoding(name); err != nil {
		return fmt.Errorf("unknown character set %q", name)
	}
	return nil
}
