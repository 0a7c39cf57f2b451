// Package engine adapts the gozxing barcode engine. It is the only
// package that speaks gozxing types; callers see the small option and
// result structs defined here.
package engine

// Format identifies a barcode symbology inside the engine boundary.
type Format int

const (
	FormatUnknown Format = iota
	FormatAztec
	FormatCodabar
	FormatCode39
	FormatCode93
	FormatCode128
	FormatDataMatrix
	FormatEAN8
	FormatEAN13
	FormatITF
	FormatMaxiCode
	FormatPDF417
	FormatQRCode
	FormatRSS14
	FormatRSSExpanded
	FormatUPCA
	FormatUPCE
	FormatUPCEANExtension
)

func (f Format) String() string {
	switch f {
	case FormatAztec:
		return "AZTEC"
	case FormatCodabar:
		return "CODABAR"
	case FormatCode39:
		return "CODE_39"
	case FormatCode93:
		return "CODE_93"
	case FormatCode128:
		return "CODE_128"
	case FormatDataMatrix:
		return "DATA_MATRIX"
	case FormatEAN8:
		return "EAN_8"
	case FormatEAN13:
		return "EAN_13"
	case FormatITF:
		return "ITF"
	case FormatMaxiCode:
		return "MAXICODE"
	case FormatPDF417:
		return "PDF_417"
	case FormatQRCode:
		return "QR_CODE"
	case FormatRSS14:
		return "RSS_14"
	case FormatRSSExpanded:
		return "RSS_EXPANDED"
	case FormatUPCA:
		return "UPC_A"
	case FormatUPCE:
		return "UPC_E"
	case FormatUPCEANExtension:
		return "UPC_EAN_EXTENSION"
	default:
		return "UNKNOWN"
	}
}

// oneDFormats are the linear symbologies handled by the shared 1D
// reader.
var oneDFormats = map[Format]bool{
	FormatCodabar:     true,
	FormatCode39:      true,
	FormatCode93:      true,
	FormatCode128:     true,
	FormatEAN8:        true,
	FormatEAN13:       true,
	FormatITF:         true,
	FormatRSS14:       true,
	FormatRSSExpanded: true,
	FormatUPCA:        true,
	FormatUPCE:        true,
}

// CanDecode reports whether the engine has a reader for the format.
// MaxiCode and standalone EAN/UPC extensions have none.
func CanDecode(f Format) bool {
	switch f {
	case FormatUnknown, FormatMaxiCode, FormatUPCEANExtension:
		return false
	default:
		return true
	}
}

// CanEncode reports whether the engine has a writer for the format.
func CanEncode(f Format) bool {
	switch f {
	case FormatAztec, FormatCodabar, FormatCode39, FormatCode93,
		FormatCode128, FormatDataMatrix, FormatEAN8, FormatEAN13,
		FormatITF, FormatPDF417, FormatQRCode, FormatUPCA, FormatUPCE:
		return true
	default:
		return false
	}
}

// DecodeOptions carries recognition settings across the engine
// boundary. All fields are pre-validated by the caller.
type DecodeOptions struct {
	Formats                []Format
	TryHarder              bool
	Multi                  bool
	PureBarcode            bool
	CharacterSet           string
	AllowedLengths         []int
	AssumeCode39CheckDigit bool
	AssumeGS1              bool
	ReturnCodabarStartEnd  bool
	AllowedEANExtensions   []int
	AlsoInverted           bool
}

// EncodeOptions carries generation settings across the engine
// boundary. All fields are pre-validated by the caller.
type EncodeOptions struct {
	Format          Format
	Width           int
	Height          int
	Margin          *int
	ErrorCorrection string
	CharacterSet    string

	DataMatrixCompact bool
	AztecLayers       int
	QRVersion         int
	QRMaskPattern     *int
	GS1Format         bool
	ForceCodeSet      string
	ForceC40          bool
	Code128Compact    bool
}

// Point is an engine-reported coordinate in the scanned image.
type Point struct {
	X float64
	Y float64
}

// Result is one recognized symbol as reported by the engine.
type Result struct {
	Text     string
	Format   Format
	RawBytes []byte
	NumBits  int
	Points   []Point
	Metadata map[string]string
}
