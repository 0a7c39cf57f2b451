package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_CORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		corsOrigin     string
		method         string
		expectedCORS   string
		expectedStatus int
		shouldCallNext bool
	}{
		{
			name:           "GET request with CORS headers",
			corsOrigin:     "*",
			method:         "GET",
			expectedCORS:   "*",
			expectedStatus: http.StatusOK,
			shouldCallNext: true,
		},
		{
			name:           "POST request with specific origin",
			corsOrigin:     "https://example.com",
			method:         "POST",
			expectedCORS:   "https://example.com",
			expectedStatus: http.StatusOK,
			shouldCallNext: true,
		},
		{
			name:           "OPTIONS request (preflight)",
			corsOrigin:     "*",
			method:         "OPTIONS",
			expectedCORS:   "*",
			expectedStatus: http.StatusOK,
			shouldCallNext: false,
		},
		{
			name:           "empty CORS origin",
			corsOrigin:     "",
			method:         "GET",
			expectedCORS:   "",
			expectedStatus: http.StatusOK,
			shouldCallNext: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{
				corsOrigin: tt.corsOrigin,
			}

			// Track if the next handler was called
			nextCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})

			corsHandler := server.corsMiddleware(nextHandler)

			req := httptest.NewRequest(tt.method, "/test", nil)
			w := httptest.NewRecorder()

			corsHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			assert.Equal(t, tt.expectedCORS, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))

			assert.Equal(t, tt.shouldCallNext, nextCalled)
		})
	}
}

func TestServer_CORSMiddleware_ErrorInNext(t *testing.T) {
	server := &Server{
		corsOrigin: "*",
	}

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	corsHandler := server.corsMiddleware(nextHandler)

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	w := httptest.NewRecorder()

	corsHandler(w, req)

	// Even with error, CORS headers should still be present
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// Test middleware chaining.
func TestServer_CORSMiddleware_Chaining(t *testing.T) {
	server := &Server{
		corsOrigin: "https://test.com",
	}

	var callOrder []string

	finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callOrder = append(callOrder, "final")
		w.WriteHeader(http.StatusOK)
	})

	testMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			callOrder = append(callOrder, "test")
			next(w, r)
		}
	}

	// Chain: CORS -> Test -> Final
	handler := server.corsMiddleware(testMiddleware(finalHandler))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"test", "final"}, callOrder)
	assert.Equal(t, "https://test.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RateLimitMiddleware_Disabled(t *testing.T) {
	server := &Server{}

	nextCalled := 0
	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
		nextCalled++
		w.WriteHeader(http.StatusOK)
	})

	for range 5 {
		req := httptest.NewRequest(http.MethodPost, "/decode", nil)
		w := httptest.NewRecorder()
		handler(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 5, nextCalled)
}

func TestServer_RateLimitMiddleware_Enforced(t *testing.T) {
	server := &Server{rateLimiter: NewRateLimiter(2)}

	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/decode", nil)
		req.RemoteAddr = "10.0.0.7:41234"
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusOK, send().Code)

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Type"))
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "rate_limit_exceeded", response["code"])
}

func TestServer_RateLimitMiddleware_PerClient(t *testing.T) {
	server := &Server{rateLimiter: NewRateLimiter(1)}

	handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/decode", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:2222").Code)
	// A different client still gets through.
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111").Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "192.168.1.10:52341",
			expected:   "192.168.1.10",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.168.1.10",
			expected:   "192.168.1.10",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9"},
			expected:   "203.0.113.9",
		},
		{
			name:       "x-forwarded-for chain takes first",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 70.41.3.18, 150.172.238.178"},
			expected:   "203.0.113.9",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.17"},
			expected:   "198.51.100.17",
		},
		{
			name:       "x-forwarded-for beats x-real-ip",
			remoteAddr: "10.0.0.1:80",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.9",
				"X-Real-IP":       "198.51.100.17",
			},
			expected: "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, getClientIP(req))
		})
	}
}

// Benchmark the CORS middleware.
func BenchmarkServer_CORSMiddleware(b *testing.B) {
	server := &Server{
		corsOrigin: "*",
	}

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	corsHandler := server.corsMiddleware(nextHandler)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	b.ResetTimer()
	for range b.N {
		w := httptest.NewRecorder()
		corsHandler(w, req)
	}
}
