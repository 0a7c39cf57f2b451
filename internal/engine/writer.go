package engine

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/pdf417"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrUnsupportedFormat marks a generation request for a symbology the
// engine has no writer for.
var ErrUnsupportedFormat = errors.New("format has no writer")

// Generate renders text as a barcode image. Writer state is per call,
// so Generate is safe for concurrent use.
func Generate(text string, opts EncodeOptions) (image.Image, error) {
	writer, ok := writerFor(opts.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.Format)
	}
	zf, ok := formatToZXing(opts.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.Format)
	}

	matrix, err := writer.Encode(text, zf, opts.Width, opts.Height, buildEncodeHints(opts))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return renderMatrix(matrix), nil
}

// writerFor returns a fresh writer for the format.
func writerFor(f Format) (gozxing.Writer, bool) {
	switch f {
	case FormatAztec:
		return aztec.NewAztecWriter(), true
	case FormatCodabar:
		return oned.NewCodaBarWriter(), true
	case FormatCode39:
		return oned.NewCode39Writer(), true
	case FormatCode93:
		return oned.NewCode93Writer(), true
	case FormatCode128:
		return oned.NewCode128Writer(), true
	case FormatDataMatrix:
		return datamatrix.NewDataMatrixWriter(), true
	case FormatEAN8:
		return oned.NewEAN8Writer(), true
	case FormatEAN13:
		return oned.NewEAN13Writer(), true
	case FormatITF:
		return oned.NewITFWriter(), true
	case FormatPDF417:
		return pdf417.NewPDF417Writer(), true
	case FormatQRCode:
		return qrcode.NewQRCodeWriter(), true
	case FormatUPCA:
		return oned.NewUPCAWriter(), true
	case FormatUPCE:
		return oned.NewUPCEWriter(), true
	default:
		return nil, false
	}
}

// buildEncodeHints translates validated options into the engine's hint
// map. Hints the engine does not implement are dropped with a debug
// line so callers can tell what was ignored.
func buildEncodeHints(opts EncodeOptions) map[gozxing.EncodeHintType]interface{} {
	hints := make(map[gozxing.EncodeHintType]interface{})
	if opts.Margin != nil {
		hints[gozxing.EncodeHintType_MARGIN] = *opts.Margin
	}
	if opts.ErrorCorrection != "" {
		hints[gozxing.EncodeHintType_ERROR_CORRECTION] = opts.ErrorCorrection
	}
	if opts.CharacterSet != "" {
		hints[gozxing.EncodeHintType_CHARACTER_SET] = opts.CharacterSet
	}
	if opts.DataMatrixCompact {
		hints[gozxing.EncodeHintType_DATA_MATRIX_COMPACT] = true
	}
	if opts.AztecLayers != 0 {
		hints[gozxing.EncodeHintType_AZTEC_LAYERS] = opts.AztecLayers
	}
	if opts.QRVersion > 0 {
		hints[gozxing.EncodeHintType_QR_VERSION] = opts.QRVersion
	}
	if opts.GS1Format {
		hints[gozxing.EncodeHintType_GS1_FORMAT] = true
	}

	if opts.QRMaskPattern != nil {
		slog.Debug("ignoring encode option the engine does not implement", "option", "qrMaskPattern")
	}
	if opts.ForceCodeSet != "" {
		slog.Debug("ignoring encode option the engine does not implement", "option", "forceCodeSet")
	}
	if opts.ForceC40 {
		slog.Debug("ignoring encode option the engine does not implement", "option", "forceC40")
	}
	if opts.Code128Compact {
		slog.Debug("ignoring encode option the engine does not implement", "option", "code128Compact")
	}
	return hints
}

// renderMatrix turns the engine's bit matrix into pixels, black modules
// on white.
func renderMatrix(matrix *gozxing.BitMatrix) *image.Gray {
	width, height := matrix.GetWidth(), matrix.GetHeight()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}
