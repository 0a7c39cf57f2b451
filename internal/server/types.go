package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/bargo"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	corsOrigin  string
	maxUploadMB int64
	rateLimiter *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host               string
	Port               int
	CORSOrigin         string
	MaxUploadMB        int64
	TimeoutSec         int
	RateLimitPerMinute int // 0 disables rate limiting
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type FormatsResponse struct {
	Formats []bargo.FormatInfo `json:"formats"`
	Count   int                `json:"count"`
}

// DecodeParams is the wire form of bargo.DecodeOptions.
type DecodeParams struct {
	TryHarder              bool     `json:"try_harder,omitempty"`
	Formats                []string `json:"formats,omitempty"`
	PureBarcode            bool     `json:"pure_barcode,omitempty"`
	CharacterSet           string   `json:"character_set,omitempty"`
	AllowedLengths         []int    `json:"allowed_lengths,omitempty"`
	AssumeCode39CheckDigit bool     `json:"assume_code39_check_digit,omitempty"`
	AssumeGS1              bool     `json:"assume_gs1,omitempty"`
	ReturnCodabarStartEnd  bool     `json:"return_codabar_start_end,omitempty"`
	AllowedEANExtensions   []int    `json:"allowed_ean_extensions,omitempty"`
	AlsoInverted           bool     `json:"also_inverted,omitempty"`
}

// DecodeRequest is the JSON body of POST /decode. Input takes the same
// three forms the library accepts: a file path, raw base64 image bytes,
// or a data URL.
type DecodeRequest struct {
	Input   string        `json:"input"`
	Multi   bool          `json:"multi,omitempty"`
	Options *DecodeParams `json:"options,omitempty"`
}

// DecodeResponse answers a single-symbol decode. Result stays present
// and null when no barcode was found.
type DecodeResponse struct {
	Success bool          `json:"success"`
	Result  *bargo.Result `json:"result"`
}

// DecodeMultiResponse answers a multi-symbol decode. Results is empty,
// never null, when no barcode was found.
type DecodeMultiResponse struct {
	Success bool           `json:"success"`
	Results []bargo.Result `json:"results"`
	Count   int            `json:"count"`
}

// DecodePDFResponse answers a PDF decode with per-page grouping.
type DecodePDFResponse struct {
	Success bool               `json:"success"`
	Pages   []bargo.PageResult `json:"pages"`
}

// EncodeParams is the wire form of bargo.EncodeOptions. Output is
// always returned to the client, so there is no output file field.
type EncodeParams struct {
	Format            string `json:"format,omitempty"`
	Width             int    `json:"width,omitempty"`
	Height            int    `json:"height,omitempty"`
	Margin            *int   `json:"margin,omitempty"`
	ErrorCorrection   string `json:"error_correction,omitempty"`
	CharacterSet      string `json:"character_set,omitempty"`
	DataMatrixCompact bool   `json:"data_matrix_compact,omitempty"`
	AztecLayers       int    `json:"aztec_layers,omitempty"`
	QRVersion         int    `json:"qr_version,omitempty"`
	QRMaskPattern     *int   `json:"qr_mask_pattern,omitempty"`
	GS1Format         bool   `json:"gs1_format,omitempty"`
	ForceCodeSet      string `json:"force_code_set,omitempty"`
	ForceC40          bool   `json:"force_c40,omitempty"`
	Code128Compact    bool   `json:"code128_compact,omitempty"`
	ImageFormat       string `json:"image_format,omitempty"`
	JPEGQuality       int    `json:"jpeg_quality,omitempty"`
}

// EncodeRequest is the JSON body of POST /encode.
type EncodeRequest struct {
	Content string        `json:"content"`
	Options *EncodeParams `json:"options,omitempty"`
}

// EncodeResponse is the JSON form of an encode answer, used when the
// client asks for base64 output. Image marshals as base64.
type EncodeResponse struct {
	Success     bool   `json:"success"`
	Image       []byte `json:"image"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// ErrorResponse is the JSON error envelope shared by all endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// NewServer creates a new barcode server instance.
func NewServer(config Config) *Server {
	var limiter *RateLimiter
	if config.RateLimitPerMinute > 0 {
		limiter = NewRateLimiter(config.RateLimitPerMinute)
	}

	return &Server{
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		rateLimiter: limiter,
	}
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/formats", s.corsMiddleware(s.formatsHandler))
	mux.HandleFunc("/decode", s.corsMiddleware(s.rateLimitMiddleware(s.decodeHandler)))
	mux.HandleFunc("/decode/pdf", s.corsMiddleware(s.rateLimitMiddleware(s.decodePDFHandler)))
	mux.HandleFunc("/encode", s.corsMiddleware(s.rateLimitMiddleware(s.encodeHandler)))
	// The websocket upgrade needs the raw ResponseWriter, so no
	// middleware wrapping here.
	mux.HandleFunc("/decode/ws", s.decodeWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
