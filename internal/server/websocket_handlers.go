package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/bargo"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketDecodeRequest represents a decode request via WebSocket.
// Input takes the usual three forms; Image carries raw image bytes as
// an alternative. Type "pdf" scans a server-local PDF file instead.
type WebSocketDecodeRequest struct {
	Type     string        `json:"type,omitempty"` // "image" (default) or "pdf"
	Input    string        `json:"input,omitempty"`
	Image    []byte        `json:"image,omitempty"`
	Filename string        `json:"filename,omitempty"`
	Pages    string        `json:"pages,omitempty"`
	Multi    bool          `json:"multi,omitempty"`
	Options  *DecodeParams `json:"options,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketDecodeResponse represents a decode response via WebSocket.
// In single mode Result holds the recognized barcode or null; in multi
// mode it holds the array of recognized barcodes.
type WebSocketDecodeResponse struct {
	Type      string  `json:"type"`
	Status    string  `json:"status"` // "processing", "completed", "error"
	Progress  float64 `json:"progress,omitempty"`
	Result    any     `json:"result,omitempty"`
	Error     string  `json:"error,omitempty"`
	ErrorType string  `json:"error_type,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
}

// decodeWebSocketHandler handles WebSocket connections for streaming
// barcode decoding.
func (s *Server) decodeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	// Set read deadline to prevent hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Send ping messages to keep connection alive
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
		}
	}
}

// handleWebSocketMessage processes a WebSocket message.
func (s *Server) handleWebSocketMessage(conn *websocket.Conn, data []byte) {
	var req WebSocketDecodeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	// Generate a request ID for tracking
	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	s.sendWebSocketResponse(conn, WebSocketDecodeResponse{
		Type:      "decode_response",
		Status:    "processing",
		RequestID: requestID,
	})

	switch req.Type {
	case "", "image":
		s.processWebSocketImage(conn, req, requestID)
	case "pdf":
		s.processWebSocketPDF(conn, req, requestID)
	default:
		s.sendWebSocketError(conn, "invalid_request", "Unsupported request type: "+req.Type)
	}
}

// processWebSocketImage decodes barcodes from an image sent over the
// connection.
func (s *Server) processWebSocketImage(conn *websocket.Conn, req WebSocketDecodeRequest, requestID string) {
	if req.Input == "" && len(req.Image) == 0 {
		s.sendWebSocketError(conn, "invalid_request", "No image data provided")
		return
	}

	opts, err := req.Options.toOptions()
	if err != nil {
		s.sendWebSocketError(conn, "options_error", err.Error())
		return
	}

	start := time.Now()
	var payload any
	var found int
	if req.Multi {
		var results []bargo.Result
		if len(req.Image) > 0 {
			results, err = bargo.DecodeAllBytes(req.Image, opts)
		} else {
			results, err = bargo.DecodeAll(req.Input, opts)
		}
		payload, found = results, len(results)
	} else {
		var res *bargo.Result
		if len(req.Image) > 0 {
			res, err = bargo.DecodeBytes(req.Image, opts)
		} else {
			res, err = bargo.Decode(req.Input, opts)
		}
		payload = res
		if res != nil {
			found = 1
		}
	}
	duration := time.Since(start)

	if err != nil {
		decodeRequestsTotal.WithLabelValues("websocket", "error").Inc()
		_, code := errorStatus(err)
		s.sendWebSocketError(conn, code, fmt.Sprintf("Decoding failed: %v", err))
		return
	}

	decodeRequestsTotal.WithLabelValues("websocket", "success").Inc()
	processingDuration.WithLabelValues("decode").Observe(duration.Seconds())
	barcodesFound.Observe(float64(found))

	s.sendWebSocketResponse(conn, WebSocketDecodeResponse{
		Type:      "decode_response",
		Status:    "completed",
		Progress:  1.0,
		Result:    payload,
		RequestID: requestID,
	})
}

// processWebSocketPDF decodes barcodes from a server-local PDF file.
func (s *Server) processWebSocketPDF(conn *websocket.Conn, req WebSocketDecodeRequest, requestID string) {
	if req.Filename == "" {
		s.sendWebSocketError(conn, "invalid_request", "No PDF filename provided")
		return
	}

	opts, err := req.Options.toOptions()
	if err != nil {
		s.sendWebSocketError(conn, "options_error", err.Error())
		return
	}

	start := time.Now()
	pages, err := bargo.DecodePDF(req.Filename, req.Pages, opts)
	duration := time.Since(start)

	if err != nil {
		decodeRequestsTotal.WithLabelValues("pdf", "error").Inc()
		_, code := errorStatus(err)
		s.sendWebSocketError(conn, code, fmt.Sprintf("PDF decoding failed: %v", err))
		return
	}

	var found int
	for _, page := range pages {
		found += len(page.Results)
	}
	decodeRequestsTotal.WithLabelValues("pdf", "success").Inc()
	processingDuration.WithLabelValues("decode").Observe(duration.Seconds())
	barcodesFound.Observe(float64(found))

	s.sendWebSocketResponse(conn, WebSocketDecodeResponse{
		Type:      "decode_response",
		Status:    "completed",
		Progress:  1.0,
		Result:    pages,
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketDecodeResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, errorType, message string) {
	response := WebSocketDecodeResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	}

	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket error response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket error message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
