package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bargo_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bargo_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Barcode processing metrics
	decodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bargo_decode_requests_total",
			Help: "Total number of decode requests",
		},
		[]string{"mode", "status"}, // mode: single, multi, pdf, websocket
	)

	encodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bargo_encode_requests_total",
			Help: "Total number of encode requests",
		},
		[]string{"format", "status"},
	)

	processingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bargo_processing_duration_seconds",
			Help:    "Barcode processing duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"op"}, // op: decode, encode
	)

	barcodesFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bargo_barcodes_found",
			Help:    "Number of barcodes recognized per request",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50},
		},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bargo_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bargo_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bargo_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bargo_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
