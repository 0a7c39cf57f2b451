package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/bargo"
)

func newTestServer() *Server {
	return NewServer(Config{CORSOrigin: "*", MaxUploadMB: 10})
}

// qrPNG renders a QR code holding the given text as PNG bytes.
func qrPNG(t *testing.T, text string) []byte {
	t.Helper()
	data, err := bargo.Encode(text, &bargo.EncodeOptions{ImageFormat: "png"})
	require.NoError(t, err)
	return data
}

// blankPNG renders a plain white image as PNG bytes.
func blankPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	for y := range 120 {
		for x := range 120 {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestServer_HealthHandler(t *testing.T) {
	server := newTestServer()

	tests := []struct {
		name           string
		method         string
		expectedStatus int
		checkResponse  bool
	}{
		{
			name:           "GET request success",
			method:         "GET",
			expectedStatus: http.StatusOK,
			checkResponse:  true,
		},
		{
			name:           "POST request not allowed",
			method:         "POST",
			expectedStatus: http.StatusMethodNotAllowed,
			checkResponse:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			w := httptest.NewRecorder()

			server.healthHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.checkResponse {
				var response HealthResponse
				err := json.Unmarshal(w.Body.Bytes(), &response)
				require.NoError(t, err)

				assert.Equal(t, "healthy", response.Status)
				assert.NotEmpty(t, response.Time)
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestServer_FormatsHandler(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/formats", nil)
	w := httptest.NewRecorder()

	server.formatsHandler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response FormatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, len(response.Formats), response.Count)
	assert.NotEmpty(t, response.Formats)

	byName := make(map[bargo.Format]bargo.FormatInfo)
	for _, info := range response.Formats {
		byName[info.Format] = info
	}
	assert.True(t, byName[bargo.FormatQRCode].CanDecode)
	assert.True(t, byName[bargo.FormatQRCode].CanEncode)
	assert.False(t, byName[bargo.FormatMaxiCode].CanDecode)
	assert.True(t, byName[bargo.FormatRSS14].CanDecode)
	assert.False(t, byName[bargo.FormatRSS14].CanEncode)
}

func TestServer_FormatsHandler_MethodNotAllowed(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/formats", nil)
	w := httptest.NewRecorder()

	server.formatsHandler(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_DecodeHandler_JSONSingle(t *testing.T) {
	server := newTestServer()
	input := base64.StdEncoding.EncodeToString(qrPNG(t, "hello from http"))

	w := postJSON(t, server.decodeHandler, "/decode", DecodeRequest{Input: input})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response DecodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	require.NotNil(t, response.Result)
	assert.Equal(t, "hello from http", response.Result.Text)
	assert.Equal(t, bargo.FormatQRCode, response.Result.Format)
}

func TestServer_DecodeHandler_JSONMulti(t *testing.T) {
	server := newTestServer()
	input := base64.StdEncoding.EncodeToString(qrPNG(t, "multi over http"))

	w := postJSON(t, server.decodeHandler, "/decode", DecodeRequest{Input: input, Multi: true})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response DecodeMultiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	require.Len(t, response.Results, 1)
	assert.Equal(t, response.Count, len(response.Results))
	assert.Equal(t, "multi over http", response.Results[0].Text)
}

// The single answer keeps a null result, the multi answer an empty
// array. Both stay distinguishable on the wire.
func TestServer_DecodeHandler_NoBarcodeShapes(t *testing.T) {
	server := newTestServer()
	input := base64.StdEncoding.EncodeToString(blankPNG(t))

	t.Run("single yields null result", func(t *testing.T) {
		w := postJSON(t, server.decodeHandler, "/decode", DecodeRequest{Input: input})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		require.Contains(t, raw, "result")
		assert.Equal(t, "null", string(raw["result"]))
	})

	t.Run("multi yields empty array", func(t *testing.T) {
		w := postJSON(t, server.decodeHandler, "/decode", DecodeRequest{Input: input, Multi: true})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		require.Contains(t, raw, "results")
		assert.Equal(t, "[]", string(raw["results"]))
	})
}

func TestServer_DecodeHandler_BadInput(t *testing.T) {
	server := newTestServer()

	w := postJSON(t, server.decodeHandler, "/decode", DecodeRequest{Input: "/no/such/file.png"})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Success)
	assert.Equal(t, "input_error", response.Code)
}

func TestServer_DecodeHandler_BadOptions(t *testing.T) {
	server := newTestServer()

	w := postJSON(t, server.decodeHandler, "/decode", DecodeRequest{
		Input:   "ignored",
		Options: &DecodeParams{Formats: []string{"NOT_A_FORMAT"}},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "options_error", response.Code)
}

func TestServer_DecodeHandler_MalformedBody(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/decode", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.decodeHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "invalid_request", response.Code)
}

func multipartBody(t *testing.T, field, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestServer_DecodeHandler_Multipart(t *testing.T) {
	server := newTestServer()
	body, contentType := multipartBody(t, "image", "code.png", qrPNG(t, "multipart upload"), nil)

	req := httptest.NewRequest(http.MethodPost, "/decode", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	server.decodeHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response DecodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Result)
	assert.Equal(t, "multipart upload", response.Result.Text)
}

func TestServer_DecodeHandler_MultipartMulti(t *testing.T) {
	server := newTestServer()
	body, contentType := multipartBody(t, "image", "code.png", qrPNG(t, "multipart multi"), map[string]string{
		"multi":   "true",
		"formats": "qr",
	})

	req := httptest.NewRequest(http.MethodPost, "/decode", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	server.decodeHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response DecodeMultiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Results, 1)
	assert.Equal(t, "multipart multi", response.Results[0].Text)
}

func TestServer_DecodeHandler_MultipartNoFile(t *testing.T) {
	server := newTestServer()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("multi", "false"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/decode", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	server.decodeHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "invalid_request", response.Code)
}

func TestServer_DecodeHandler_MultipartBadBool(t *testing.T) {
	server := newTestServer()
	body, contentType := multipartBody(t, "image", "code.png", qrPNG(t, "x"), map[string]string{
		"multi": "definitely",
	})

	req := httptest.NewRequest(http.MethodPost, "/decode", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	server.decodeHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "options_error", response.Code)
}

func TestServer_EncodeHandler_RawBytes(t *testing.T) {
	server := newTestServer()

	w := postJSON(t, server.encodeHandler, "/encode", EncodeRequest{
		Content: "round trip me",
		Options: &EncodeParams{ImageFormat: "png"},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	res, err := bargo.DecodeBytes(w.Body.Bytes(), nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "round trip me", res.Text)
}

func TestServer_EncodeHandler_DefaultJPEG(t *testing.T) {
	server := newTestServer()

	w := postJSON(t, server.encodeHandler, "/encode", EncodeRequest{Content: "jpeg default"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	_, format, err := image.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestServer_EncodeHandler_Base64Envelope(t *testing.T) {
	server := newTestServer()

	w := postJSON(t, server.encodeHandler, "/encode?b64=1", EncodeRequest{
		Content: "enveloped",
		Options: &EncodeParams{ImageFormat: "png", Width: 240},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response EncodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "image/png", response.ContentType)
	assert.Equal(t, 240, response.Width)
	assert.Equal(t, 240, response.Height)

	res, err := bargo.DecodeBytes(response.Image, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "enveloped", res.Text)
}

func TestServer_EncodeHandler_EmptyContent(t *testing.T) {
	server := newTestServer()

	w := postJSON(t, server.encodeHandler, "/encode", EncodeRequest{Content: ""})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "generation_error", response.Code)
}

func TestServer_EncodeHandler_UnwritableFormat(t *testing.T) {
	server := newTestServer()

	w := postJSON(t, server.encodeHandler, "/encode", EncodeRequest{
		Content: "data",
		Options: &EncodeParams{Format: "maxicode"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "options_error", response.Code)
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectStatus int
		expectCode   string
	}{
		{"input", &bargo.Error{Kind: bargo.KindInput}, http.StatusBadRequest, "input_error"},
		{"options", &bargo.Error{Kind: bargo.KindOptions}, http.StatusBadRequest, "options_error"},
		{"generation", &bargo.Error{Kind: bargo.KindGeneration}, http.StatusUnprocessableEntity, "generation_error"},
		{"recognition", &bargo.Error{Kind: bargo.KindRecognition}, http.StatusInternalServerError, "recognition_error"},
		{"io", &bargo.Error{Kind: bargo.KindIO}, http.StatusInternalServerError, "io_error"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := errorStatus(tt.err)
			assert.Equal(t, tt.expectStatus, status)
			assert.Equal(t, tt.expectCode, code)
		})
	}
}

func TestServer_WriteErrorResponse(t *testing.T) {
	server := newTestServer()

	w := httptest.NewRecorder()
	server.writeErrorResponse(w, "input_error", "Invalid input", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Success)
	assert.Equal(t, "Invalid input", response.Error)
	assert.Equal(t, "input_error", response.Code)
}

// Benchmark tests.
func BenchmarkServer_HealthHandler(b *testing.B) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for range b.N {
		w := httptest.NewRecorder()
		server.healthHandler(w, req)
	}
}

func BenchmarkServer_FormatsHandler(b *testing.B) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/formats", nil)

	b.ResetTimer()
	for range b.N {
		w := httptest.NewRecorder()
		server.formatsHandler(w, req)
	}
}
