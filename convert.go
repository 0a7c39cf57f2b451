package bargo

import (
	"github.com/MeKo-Tech/bargo/internal/engine"
)

func formatToEngine(f Format) engine.Format {
	switch f {
	case FormatAztec:
		return engine.FormatAztec
	case FormatCodabar:
		return engine.FormatCodabar
	case FormatCode39:
		return engine.FormatCode39
	case FormatCode93:
		return engine.FormatCode93
	case FormatCode128:
		return engine.FormatCode128
	case FormatDataMatrix:
		return engine.FormatDataMatrix
	case FormatEAN8:
		return engine.FormatEAN8
	case FormatEAN13:
		return engine.FormatEAN13
	case FormatITF:
		return engine.FormatITF
	case FormatMaxiCode:
		return engine.FormatMaxiCode
	case FormatPDF417:
		return engine.FormatPDF417
	case FormatQRCode:
		return engine.FormatQRCode
	case FormatRSS14:
		return engine.FormatRSS14
	case FormatRSSExpanded:
		return engine.FormatRSSExpanded
	case FormatUPCA:
		return engine.FormatUPCA
	case FormatUPCE:
		return engine.FormatUPCE
	case FormatUPCEANExtension:
		return engine.FormatUPCEANExtension
	default:
		return engine.FormatUnknown
	}
}

func formatFromEngine(f engine.Format) Format {
	switch f {
	case engine.FormatAztec:
		return FormatAztec
	case engine.FormatCodabar:
		return FormatCodabar
	case engine.FormatCode39:
		return FormatCode39
	case engine.FormatCode93:
		return FormatCode93
	case engine.FormatCode128:
		return FormatCode128
	case engine.FormatDataMatrix:
		return FormatDataMatrix
	case engine.FormatEAN8:
		return FormatEAN8
	case engine.FormatEAN13:
		return FormatEAN13
	case engine.FormatITF:
		return FormatITF
	case engine.FormatMaxiCode:
		return FormatMaxiCode
	case engine.FormatPDF417:
		return FormatPDF417
	case engine.FormatQRCode:
		return FormatQRCode
	case engine.FormatRSS14:
		return FormatRSS14
	case engine.FormatRSSExpanded:
		return FormatRSSExpanded
	case engine.FormatUPCA:
		return FormatUPCA
	case engine.FormatUPCE:
		return FormatUPCE
	case engine.FormatUPCEANExtension:
		return FormatUPCEANExtension
	default:
		return ""
	}
}

func engineCanDecode(f engine.Format) bool {
	return engine.CanDecode(f)
}

func engineCanEncode(f engine.Format) bool {
	return engine.CanEncode(f)
}

// decodeOptionsToEngine converts normalized options for the engine
// boundary. multi selects whether every symbol is reported.
func decodeOptionsToEngine(opts DecodeOptions, multi bool) engine.DecodeOptions {
	eo := engine.DecodeOptions{
		TryHarder:              opts.TryHarder,
		Multi:                  multi,
		PureBarcode:            opts.PureBarcode,
		CharacterSet:           opts.CharacterSet,
		AllowedLengths:         opts.AllowedLengths,
		AssumeCode39CheckDigit: opts.AssumeCode39CheckDigit,
		AssumeGS1:              opts.AssumeGS1,
		ReturnCodabarStartEnd:  opts.ReturnCodabarStartEnd,
		AllowedEANExtensions:   opts.AllowedEANExtensions,
		AlsoInverted:           opts.AlsoInverted,
	}
	if len(opts.Formats) > 0 {
		eo.Formats = make([]engine.Format, 0, len(opts.Formats))
		for _, f := range opts.Formats {
			eo.Formats = append(eo.Formats, formatToEngine(f))
		}
	}
	return eo
}

// encodeOptionsToEngine converts normalized options for the engine
// boundary.
func encodeOptionsToEngine(opts EncodeOptions) engine.EncodeOptions {
	return engine.EncodeOptions{
		Format:            formatToEngine(opts.Format),
		Width:             opts.Width,
		Height:            opts.Height,
		Margin:            opts.Margin,
		ErrorCorrection:   opts.ErrorCorrection,
		CharacterSet:      opts.CharacterSet,
		DataMatrixCompact: opts.DataMatrixCompact,
		AztecLayers:       opts.AztecLayers,
		QRVersion:         opts.QRVersion,
		QRMaskPattern:     opts.QRMaskPattern,
		GS1Format:         opts.GS1Format,
		ForceCodeSet:      opts.ForceCodeSet,
		ForceC40:          opts.ForceC40,
		Code128Compact:    opts.Code128Compact,
	}
}

func resultFromEngine(r engine.Result) Result {
	res := Result{
		Text:     r.Text,
		Format:   formatFromEngine(r.Format),
		RawBytes: r.RawBytes,
		NumBits:  r.NumBits,
		Metadata: r.Metadata,
	}
	if len(r.Points) > 0 {
		res.Points = make([]Point, 0, len(r.Points))
		for _, p := range r.Points {
			res.Points = append(res.Points, Point{X: p.X, Y: p.Y})
		}
	}
	return res
}

func resultsFromEngine(rs []engine.Result) []Result {
	out := make([]Result, 0, len(rs))
	for _, r := range rs {
		out = append(out, resultFromEngine(r))
	}
	return out
}
