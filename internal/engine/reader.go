package engine

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/multi"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/pdf417"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Recognize scans an image for barcodes. It returns an empty slice when
// no symbol is present; an error means the scan itself failed. With
// opts.Multi every symbol in the image is reported, otherwise at most
// one. Reader state is per call, so Recognize is safe for concurrent
// use.
func Recognize(img image.Image, opts DecodeOptions) ([]Result, error) {
	hints := buildDecodeHints(opts)
	if reader := newFormatReader(opts.Formats, hints); reader == nil {
		// None of the requested formats has a reader.
		return []Result{}, nil
	}

	raw, err := scan(img, opts, hints)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		return mapResults(raw, 0), nil
	}

	// A straight pass found nothing. TryHarder buys three rotated
	// retries, which is how upright-only readers catch sideways 1D
	// codes.
	if opts.TryHarder && !opts.PureBarcode {
		for _, rot := range []struct {
			degrees int
			apply   func(image.Image) *image.NRGBA
		}{
			{90, imaging.Rotate90},
			{180, imaging.Rotate180},
			{270, imaging.Rotate270},
		} {
			raw, err = scan(rot.apply(img), opts, hints)
			if err != nil {
				return nil, err
			}
			if len(raw) > 0 {
				return mapResults(raw, rot.degrees), nil
			}
		}
	}

	return []Result{}, nil
}

// scan runs one recognition pass over the image, retrying on inverted
// luminance when requested.
func scan(img image.Image, opts DecodeOptions, hints map[gozxing.DecodeHintType]interface{}) ([]*gozxing.Result, error) {
	source := gozxing.NewLuminanceSourceFromImage(img)
	raw, err := scanSource(source, opts, hints)
	if err != nil || len(raw) > 0 {
		return raw, err
	}
	if opts.AlsoInverted {
		return scanSource(source.Invert(), opts, hints)
	}
	return nil, nil
}

// scanSource binarizes one luminance source and runs the readers over
// it. "No barcode" comes back as an empty result set with a nil error.
func scanSource(source gozxing.LuminanceSource, opts DecodeOptions, hints map[gozxing.DecodeHintType]interface{}) ([]*gozxing.Result, error) {
	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(source))
	if err != nil {
		return nil, fmt.Errorf("binarize image: %w", err)
	}

	reader := newFormatReader(opts.Formats, hints)

	if opts.Multi {
		multiReader := multi.NewGenericMultipleBarcodeReader(reader)
		raw, err := multiReader.DecodeMultiple(bitmap, hints)
		if err != nil {
			if isReaderMiss(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("scan image: %w", err)
		}
		return raw, nil
	}

	result, err := reader.Decode(bitmap, hints)
	if err != nil {
		if isReaderMiss(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan image: %w", err)
	}
	return []*gozxing.Result{result}, nil
}

// isReaderMiss reports whether err is the engine's way of saying the
// image holds no (further) decodable symbol, as opposed to a scan
// failure.
func isReaderMiss(err error) bool {
	var re gozxing.ReaderException
	return errors.As(err, &re)
}

// formatReader fans a decode attempt out over per-symbology readers,
// first match wins. It implements gozxing.Reader so the multi-symbol
// reader can recurse through it.
type formatReader struct {
	readers []gozxing.Reader
}

// newFormatReader assembles fresh readers for the requested formats,
// or for every readable format when the list is empty. It returns nil
// when no requested format has a reader. Linear symbologies share the
// engine's combined 1D reader, which consults the hint map itself.
func newFormatReader(formats []Format, hints map[gozxing.DecodeHintType]interface{}) *formatReader {
	want := func(f Format) bool {
		if len(formats) == 0 {
			return true
		}
		for _, g := range formats {
			if f == g {
				return true
			}
		}
		return false
	}
	wantOneD := func() bool {
		if len(formats) == 0 {
			return true
		}
		for _, f := range formats {
			if oneDFormats[f] {
				return true
			}
		}
		return false
	}

	var readers []gozxing.Reader
	if want(FormatQRCode) {
		readers = append(readers, qrcode.NewQRCodeReader())
	}
	if want(FormatDataMatrix) {
		readers = append(readers, datamatrix.NewDataMatrixReader())
	}
	if want(FormatAztec) {
		readers = append(readers, aztec.NewAztecReader())
	}
	if want(FormatPDF417) {
		readers = append(readers, pdf417.NewPDF417Reader())
	}
	if wantOneD() {
		readers = append(readers, oned.NewMultiFormatOneDReader(hints))
	}
	if len(readers) == 0 {
		return nil
	}
	return &formatReader{readers: readers}
}

func (r *formatReader) Decode(image *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{}) (*gozxing.Result, error) {
	var lastErr error
	for _, reader := range r.readers {
		result, err := reader.Decode(image, hints)
		if err == nil {
			return result, nil
		}
		if !isReaderMiss(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (r *formatReader) DecodeWithoutHints(image *gozxing.BinaryBitmap) (*gozxing.Result, error) {
	return r.Decode(image, nil)
}

func (r *formatReader) Reset() {
	for _, reader := range r.readers {
		reader.Reset()
	}
}

// buildDecodeHints translates validated options into the engine's hint
// map.
func buildDecodeHints(opts DecodeOptions) map[gozxing.DecodeHintType]interface{} {
	hints := make(map[gozxing.DecodeHintType]interface{})
	if len(opts.Formats) > 0 {
		formats := make([]gozxing.BarcodeFormat, 0, len(opts.Formats))
		for _, f := range opts.Formats {
			if bf, ok := formatToZXing(f); ok {
				formats = append(formats, bf)
			}
		}
		if len(formats) > 0 {
			hints[gozxing.DecodeHintType_POSSIBLE_FORMATS] = formats
		}
	}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	if opts.PureBarcode {
		hints[gozxing.DecodeHintType_PURE_BARCODE] = true
	}
	if opts.CharacterSet != "" {
		hints[gozxing.DecodeHintType_CHARACTER_SET] = opts.CharacterSet
	}
	if len(opts.AllowedLengths) > 0 {
		hints[gozxing.DecodeHintType_ALLOWED_LENGTHS] = opts.AllowedLengths
	}
	if opts.AssumeCode39CheckDigit {
		hints[gozxing.DecodeHintType_ASSUME_CODE_39_CHECK_DIGIT] = true
	}
	if opts.AssumeGS1 {
		hints[gozxing.DecodeHintType_ASSUME_GS1] = true
	}
	if opts.ReturnCodabarStartEnd {
		hints[gozxing.DecodeHintType_RETURN_CODABAR_START_END] = true
	}
	if len(opts.AllowedEANExtensions) > 0 {
		hints[gozxing.DecodeHintType_ALLOWED_EAN_EXTENSIONS] = opts.AllowedEANExtensions
	}
	return hints
}

// mapResults converts raw engine results, tagging them with the
// rotation that made the scan succeed.
func mapResults(raw []*gozxing.Result, orientation int) []Result {
	out := make([]Result, 0, len(raw))
	for _, r := range raw {
		res := Result{
			Text:     r.GetText(),
			Format:   formatFromZXing(r.GetBarcodeFormat()),
			RawBytes: r.GetRawBytes(),
		}
		res.NumBits = 8 * len(res.RawBytes)
		if pts := r.GetResultPoints(); len(pts) > 0 {
			res.Points = make([]Point, 0, len(pts))
			for _, p := range pts {
				res.Points = append(res.Points, Point{X: p.GetX(), Y: p.GetY()})
			}
		}
		res.Metadata = mapMetadata(r.GetResultMetadata())
		if orientation != 0 {
			if res.Metadata == nil {
				res.Metadata = make(map[string]string, 1)
			}
			res.Metadata["orientation"] = fmt.Sprintf("%d", orientation)
		}
		out = append(out, res)
	}
	return out
}

// mapMetadata keeps the scalar engine metadata under stable snake_case
// keys. Structured entries such as byte segments are dropped.
func mapMetadata(meta map[gozxing.ResultMetadataType]interface{}) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string)
	for k, v := range meta {
		name := ""
		switch k {
		case gozxing.ResultMetadataType_ORIENTATION:
			name = "orientation"
		case gozxing.ResultMetadataType_ERROR_CORRECTION_LEVEL:
			name = "error_correction_level"
		case gozxing.ResultMetadataType_ISSUE_NUMBER:
			name = "issue_number"
		case gozxing.ResultMetadataType_SUGGESTED_PRICE:
			name = "suggested_price"
		case gozxing.ResultMetadataType_POSSIBLE_COUNTRY:
			name = "possible_country"
		case gozxing.ResultMetadataType_UPC_EAN_EXTENSION:
			name = "upc_ean_extension"
		case gozxing.ResultMetadataType_STRUCTURED_APPEND_SEQUENCE:
			name = "structured_append_sequence"
		case gozxing.ResultMetadataType_STRUCTURED_APPEND_PARITY:
			name = "structured_append_parity"
		}
		if name == "" {
			continue
		}
		out[name] = fmt.Sprint(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
