// Package handler provides HTTP request handling for the MCP server.
package handler

import (
	"net/http"
	"time"

	"github.com/brizzai/requestkit/internal/logger"
	"go.uber.org/zap"
)

// Handler assembles the HTTP routes served next to the MCP endpoint
type Handler struct {
	metricsPath string
	metrics     http.Handler
}

// NewHandler creates an HTTP handler. A nil metrics handler disables the
// metrics route.
func NewHandler(metricsPath string, metrics http.Handler) *Handler {
	return &Handler{
		metricsPath: metricsPath,
		metrics:     metrics,
	}
}

// CreateHTTPHandler mounts the MCP handler at "/" behind request logging and CORS
func (h *Handler) CreateHTTPHandler(mcpHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	if h.metrics != nil && h.metricsPath != "" {
		mux.Handle(h.metricsPath, h.metrics)
		logger.Info("Serving metrics", zap.String("path", h.metricsPath))
	}
	mux.Handle("/", LoggingMiddleware(mcpHandler))
	return CORSMiddleware(mux)
}

// CORSMiddleware lets browser based MCP clients reach the server
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, MCP-Session-ID")
		w.Header().Set("Access-Control-Expose-Headers", "MCP-Session-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs information about each incoming request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		logger.Info("HTTP Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rw.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
