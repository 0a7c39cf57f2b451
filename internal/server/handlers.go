package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/bargo"
	"github.com/MeKo-Tech/bargo/internal/imgio"
	"github.com/MeKo-Tech/bargo/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	s.writeJSON(w, response)
}

// formatsHandler lists the supported symbologies and their capabilities.
func (s *Server) formatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	infos := bargo.SupportedFormats()
	response := FormatsResponse{
		Formats: infos,
		Count:   len(infos),
	}

	s.writeJSON(w, response)
}

// decodeHandler recognizes barcodes in an uploaded image. It accepts a
// multipart form with an "image" file or a JSON body whose "input"
// field takes a file path, raw base64 or a data URL.
func (s *Server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	var (
		results []bargo.Result
		single  *bargo.Result
		multi   bool
		err     error
	)

	start := time.Now()
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		single, results, multi, err = s.decodeMultipart(w, r)
	} else {
		single, results, multi, err = s.decodeJSON(w, r)
	}
	if err != nil {
		// The helpers already wrote the response.
		decodeRequestsTotal.WithLabelValues(decodeMode(multi), "error").Inc()
		return
	}

	found := len(results)
	if !multi && single != nil {
		found = 1
	}
	decodeProcessingDuration(start, multi, found)

	if multi {
		s.writeJSON(w, DecodeMultiResponse{Success: true, Results: results, Count: len(results)})
		return
	}
	s.writeJSON(w, DecodeResponse{Success: true, Result: single})
}

// decodeMultipart handles the multipart form variant of /decode.
func (s *Server) decodeMultipart(
	w http.ResponseWriter,
	r *http.Request,
) (*bargo.Result, []bargo.Result, bool, error) {
	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		if isBodyTooLarge(err) {
			s.writeErrorResponse(w, "too_large", "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
		}
		return nil, nil, false, err
	}

	opts, multi, err := decodeOptionsFromForm(r)
	if err != nil {
		s.writeErrorResponse(w, "options_error", err.Error(), http.StatusBadRequest)
		return nil, nil, multi, err
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "invalid_request", "No image file provided", http.StatusBadRequest)
		return nil, nil, multi, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "internal_error", "Failed to read image data", http.StatusInternalServerError)
		return nil, nil, multi, err
	}
	uploadSizeBytes.Observe(float64(header.Size))

	if multi {
		results, err := bargo.DecodeAllBytes(data, opts)
		if err != nil {
			s.writeError(w, err)
			return nil, nil, multi, err
		}
		return nil, results, multi, nil
	}

	res, err := bargo.DecodeBytes(data, opts)
	if err != nil {
		s.writeError(w, err)
		return nil, nil, multi, err
	}
	return res, nil, multi, nil
}

// decodeJSON handles the JSON body variant of /decode.
func (s *Server) decodeJSON(
	w http.ResponseWriter,
	r *http.Request,
) (*bargo.Result, []bargo.Result, bool, error) {
	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isBodyTooLarge(err) {
			s.writeErrorResponse(w, "too_large", "Request body too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "invalid_request", "Failed to parse request body", http.StatusBadRequest)
		}
		return nil, nil, false, err
	}

	opts, err := req.Options.toOptions()
	if err != nil {
		s.writeErrorResponse(w, "options_error", err.Error(), http.StatusBadRequest)
		return nil, nil, req.Multi, err
	}

	if req.Multi {
		results, err := bargo.DecodeAll(req.Input, opts)
		if err != nil {
			s.writeError(w, err)
			return nil, nil, true, err
		}
		return nil, results, true, nil
	}

	res, err := bargo.Decode(req.Input, opts)
	if err != nil {
		s.writeError(w, err)
		return nil, nil, false, err
	}
	return res, nil, false, nil
}

// decodePDFHandler recognizes barcodes in the images embedded in an
// uploaded PDF. Results come back grouped per page.
func (s *Server) decodePDFHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		if isBodyTooLarge(err) {
			s.writeErrorResponse(w, "too_large", "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	opts, _, err := decodeOptionsFromForm(r)
	if err != nil {
		s.writeErrorResponse(w, "options_error", err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		s.writeErrorResponse(w, "invalid_request", "No PDF file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()
	uploadSizeBytes.Observe(float64(header.Size))

	// The PDF extractor works on files, so spool the upload to disk.
	tmp, err := os.CreateTemp("", "bargo-upload-*.pdf")
	if err != nil {
		s.writeErrorResponse(w, "internal_error", "Failed to store upload", http.StatusInternalServerError)
		return
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		s.writeErrorResponse(w, "internal_error", "Failed to store upload", http.StatusInternalServerError)
		return
	}
	if err := tmp.Close(); err != nil {
		s.writeErrorResponse(w, "internal_error", "Failed to store upload", http.StatusInternalServerError)
		return
	}

	start := time.Now()
	pages, err := bargo.DecodePDF(tmp.Name(), r.FormValue("pages"), opts)
	if err != nil {
		decodeRequestsTotal.WithLabelValues("pdf", "error").Inc()
		s.writeError(w, err)
		return
	}

	var found int
	for _, page := range pages {
		found += len(page.Results)
	}
	decodeRequestsTotal.WithLabelValues("pdf", "success").Inc()
	processingDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())
	barcodesFound.Observe(float64(found))

	s.writeJSON(w, DecodePDFResponse{Success: true, Pages: pages})
}

// encodeHandler renders a barcode for the posted content. The default
// response is raw image bytes; ?b64=1 switches to a JSON envelope with
// the image base64 encoded.
func (s *Server) encodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	var req EncodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if isBodyTooLarge(err) {
			s.writeErrorResponse(w, "too_large", "Request body too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "invalid_request", "Failed to parse request body", http.StatusBadRequest)
		}
		return
	}

	opts := req.Options.toOptions()
	format := opts.Format
	if format == "" {
		format = bargo.FormatQRCode
	}

	start := time.Now()
	data, err := bargo.Encode(req.Content, opts)
	if err != nil {
		encodeRequestsTotal.WithLabelValues(string(format), "error").Inc()
		s.writeError(w, err)
		return
	}
	encodeRequestsTotal.WithLabelValues(string(format), "success").Inc()
	processingDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())

	imageFormat, _ := imgio.ParseFormat(opts.ImageFormat)

	if wantsBase64(r) {
		response := EncodeResponse{
			Success:     true,
			Image:       data,
			ContentType: imageFormat.MIMEType(),
		}
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			response.Width = cfg.Width
			response.Height = cfg.Height
		}
		s.writeJSON(w, response)
		return
	}

	w.Header().Set("Content-Type", imageFormat.MIMEType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write encode response", "error", err)
	}
}

// wantsBase64 reports whether the client asked for the JSON envelope.
func wantsBase64(r *http.Request) bool {
	if v := r.URL.Query().Get("b64"); v != "" {
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return false
}

// decodeMode names the decode shape for metric labels.
func decodeMode(multi bool) string {
	if multi {
		return "multi"
	}
	return "single"
}

// decodeProcessingDuration records metrics for a finished decode.
func decodeProcessingDuration(start time.Time, multi bool, found int) {
	decodeRequestsTotal.WithLabelValues(decodeMode(multi), "success").Inc()
	processingDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())
	barcodesFound.Observe(float64(found))
}

// toOptions converts wire decode params into library options.
func (p *DecodeParams) toOptions() (*bargo.DecodeOptions, error) {
	opts := &bargo.DecodeOptions{}
	if p == nil {
		return opts, nil
	}

	formats := make([]bargo.Format, 0, len(p.Formats))
	for _, name := range p.Formats {
		f, err := bargo.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}

	opts.TryHarder = p.TryHarder
	opts.Formats = formats
	opts.PureBarcode = p.PureBarcode
	opts.CharacterSet = p.CharacterSet
	opts.AllowedLengths = p.AllowedLengths
	opts.AssumeCode39CheckDigit = p.AssumeCode39CheckDigit
	opts.AssumeGS1 = p.AssumeGS1
	opts.ReturnCodabarStartEnd = p.ReturnCodabarStartEnd
	opts.AllowedEANExtensions = p.AllowedEANExtensions
	opts.AlsoInverted = p.AlsoInverted
	return opts, nil
}

// toOptions converts wire encode params into library options. Value
// validation stays with the library.
func (p *EncodeParams) toOptions() *bargo.EncodeOptions {
	opts := &bargo.EncodeOptions{}
	if p == nil {
		return opts
	}

	if p.Format != "" {
		if f, err := bargo.ParseFormat(p.Format); err == nil {
			opts.Format = f
		} else {
			// Unknown names pass through for the library to reject.
			opts.Format = bargo.Format(strings.ToUpper(p.Format))
		}
	}
	opts.Width = p.Width
	opts.Height = p.Height
	opts.Margin = p.Margin
	opts.ErrorCorrection = p.ErrorCorrection
	opts.CharacterSet = p.CharacterSet
	opts.DataMatrixCompact = p.DataMatrixCompact
	opts.AztecLayers = p.AztecLayers
	opts.QRVersion = p.QRVersion
	opts.QRMaskPattern = p.QRMaskPattern
	opts.GS1Format = p.GS1Format
	opts.ForceCodeSet = p.ForceCodeSet
	opts.ForceC40 = p.ForceC40
	opts.Code128Compact = p.Code128Compact
	opts.ImageFormat = p.ImageFormat
	opts.JPEGQuality = p.JPEGQuality
	return opts
}

// decodeOptionsFromForm reads decode options from multipart form values.
func decodeOptionsFromForm(r *http.Request) (*bargo.DecodeOptions, bool, error) {
	multi, err := formBool(r, "multi")
	if err != nil {
		return nil, false, err
	}

	opts := &bargo.DecodeOptions{}
	if opts.TryHarder, err = formBool(r, "try_harder"); err != nil {
		return nil, multi, err
	}
	if opts.PureBarcode, err = formBool(r, "pure_barcode"); err != nil {
		return nil, multi, err
	}
	if opts.AlsoInverted, err = formBool(r, "also_inverted"); err != nil {
		return nil, multi, err
	}
	opts.CharacterSet = r.FormValue("character_set")
	if v := r.FormValue("formats"); v != "" {
		if opts.Formats, err = bargo.ParseFormats(v); err != nil {
			return nil, multi, err
		}
	}
	return opts, multi, nil
}

// formBool parses an optional boolean form value.
func formBool(r *http.Request, key string) (bool, error) {
	v := r.FormValue(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("form value %s=%q is not a boolean", key, v)
	}
	return b, nil
}

// isBodyTooLarge reports whether err came from the MaxBytesReader cap.
func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}

// writeJSON writes a JSON success response.
func (s *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// errorStatus maps a library error onto an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch bargo.ErrorKind(err) {
	case bargo.KindInput:
		return http.StatusBadRequest, "input_error"
	case bargo.KindOptions:
		return http.StatusBadRequest, "options_error"
	case bargo.KindGeneration:
		return http.StatusUnprocessableEntity, "generation_error"
	case bargo.KindRecognition:
		return http.StatusInternalServerError, "recognition_error"
	case bargo.KindIO:
		return http.StatusInternalServerError, "io_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError answers with the HTTP rendering of a library error.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	s.writeErrorResponse(w, code, err.Error(), status)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
