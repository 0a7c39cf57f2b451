package bargo

// Point is an image coordinate reported by the engine, such as a finder
// pattern center or a scan line endpoint.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is one recognized barcode. Results are plain values; the
// library never retains or mutates them after returning.
type Result struct {
	// Text is the decoded payload interpreted as text.
	Text string `json:"text"`

	// Format is the symbology the payload was read from.
	Format Format `json:"format"`

	// RawBytes is the raw payload before text interpretation, when the
	// symbology exposes one.
	RawBytes []byte `json:"raw_bytes,omitempty"`

	// NumBits is the number of valid bits in RawBytes.
	NumBits int `json:"num_bits,omitempty"`

	// Points are engine-reported locator coordinates in the scanned
	// image, in engine order.
	Points []Point `json:"points,omitempty"`

	// Metadata carries auxiliary engine facts keyed by stable names,
	// for example "error_correction_level" or "orientation".
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PageResult groups the barcodes recognized on one page of a document.
type PageResult struct {
	// Page is the 1-based page number within the source document.
	Page int `json:"page"`

	// Results holds every barcode found on the page. It is never nil.
	Results []Result `json:"results"`
}
