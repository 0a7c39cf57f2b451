package bargo

import (
	"github.com/MeKo-Tech/bargo/internal/pdf"
)

// DecodePDF scans the embedded images of a PDF document for barcodes,
// page by page. pageRange limits the scan to the given pages ("3",
// "1-5", "1,4-6"); empty scans the whole document.
//
// Every scanned page that contains at least one image appears in the
// returned slice in page order, with an empty (never nil) Results
// slice when its images hold no barcodes. opts may be nil.
func DecodePDF(path, pageRange string, opts *DecodeOptions) ([]PageResult, error) {
	const op = "decode-pdf"

	norm, err := normalizeDecodeOptions(op, opts)
	if err != nil {
		return nil, err
	}

	byPage, err := pdf.ExtractImages(path, pageRange)
	if err != nil {
		return nil, newError(KindInput, op, err)
	}

	out := make([]PageResult, 0, len(byPage))
	for _, page := range pdf.Pages(byPage) {
		pr := PageResult{Page: page, Results: []Result{}}
		for _, img := range byPage[page] {
			results, err := runEngine(op, img, &norm, true)
			if err != nil {
				return nil, err
			}
			pr.Results = append(pr.Results, results...)
		}
		out = append(out, pr)
	}
	return out, nil
}
