package engine

import (
	"github.com/makiuchi-d/gozxing"
)

// formatToZXing maps an engine format to the gozxing constant.
func formatToZXing(f Format) (gozxing.BarcodeFormat, bool) {
	switch f {
	case FormatAztec:
		return gozxing.BarcodeFormat_AZTEC, true
	case FormatCodabar:
		return gozxing.BarcodeFormat_CODABAR, true
	case FormatCode39:
		return gozxing.BarcodeFormat_CODE_39, true
	case FormatCode93:
		return gozxing.BarcodeFormat_CODE_93, true
	case FormatCode128:
		return gozxing.BarcodeFormat_CODE_128, true
	case FormatDataMatrix:
		return gozxing.BarcodeFormat_DATA_MATRIX, true
	case FormatEAN8:
		return gozxing.BarcodeFormat_EAN_8, true
	case FormatEAN13:
		return gozxing.BarcodeFormat_EAN_13, true
	case FormatITF:
		return gozxing.BarcodeFormat_ITF, true
	case FormatMaxiCode:
		return gozxing.BarcodeFormat_MAXICODE, true
	case FormatPDF417:
		return gozxing.BarcodeFormat_PDF_417, true
	case FormatQRCode:
		return gozxing.BarcodeFormat_QR_CODE, true
	case FormatRSS14:
		return gozxing.BarcodeFormat_RSS_14, true
	case FormatRSSExpanded:
		return gozxing.BarcodeFormat_RSS_EXPANDED, true
	case FormatUPCA:
		return gozxing.BarcodeFormat_UPC_A, true
	case FormatUPCE:
		return gozxing.BarcodeFormat_UPC_E, true
	case FormatUPCEANExtension:
		return gozxing.BarcodeFormat_UPC_EAN_EXTENSION, true
	default:
		return 0, false
	}
}

// formatFromZXing maps a gozxing format constant back to the engine
// format.
func formatFromZXing(bf gozxing.BarcodeFormat) Format {
	switch bf {
	case gozxing.BarcodeFormat_AZTEC:
		return FormatAztec
	case gozxing.BarcodeFormat_CODABAR:
		return FormatCodabar
	case gozxing.BarcodeFormat_CODE_39:
		return FormatCode39
	case gozxing.BarcodeFormat_CODE_93:
		return FormatCode93
	case gozxing.BarcodeFormat_CODE_128:
		return FormatCode128
	case gozxing.BarcodeFormat_DATA_MATRIX:
		return FormatDataMatrix
	case gozxing.BarcodeFormat_EAN_8:
		return FormatEAN8
	case gozxing.BarcodeFormat_EAN_13:
		return FormatEAN13
	case gozxing.BarcodeFormat_ITF:
		return FormatITF
	case gozxing.BarcodeFormat_MAXICODE:
		return FormatMaxiCode
	case gozxing.BarcodeFormat_PDF_417:
		return FormatPDF417
	case gozxing.BarcodeFormat_QR_CODE:
		return FormatQRCode
	case gozxing.BarcodeFormat_RSS_14:
		return FormatRSS14
	case gozxing.BarcodeFormat_RSS_EXPANDED:
		return FormatRSSExpanded
	case gozxing.BarcodeFormat_UPC_A:
		return FormatUPCA
	case gozxing.BarcodeFormat_UPC_E:
		return FormatUPCE
	case gozxing.BarcodeFormat_UPC_EAN_EXTENSION:
		return FormatUPCEANExtension
	default:
		return FormatUnknown
	}
}
