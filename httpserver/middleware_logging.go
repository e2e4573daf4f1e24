package httpserver

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LoggerConfig configures the request logging middleware.
type LoggerConfig struct {
	Logger zerolog.Logger

	// serviceName is set internally by the server.
	serviceName string

	// SkipPaths are not logged. Useful for health probes.
	SkipPaths []string
}

// Logger returns middleware that logs one line per request with method,
// path, status, duration and request ID. 4xx logs at warn, 5xx at error.
//
// Request and response bodies are never logged: they carry caller headers,
// API keys and fetched documents.
func Logger(cfg LoggerConfig) Middleware {
	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			event := cfg.Logger.Info()
			switch status := wrapped.Status(); {
			case status >= 500:
				event = cfg.Logger.Error()
			case status >= 400:
				event = cfg.Logger.Warn()
			}

			event.
				Str("service", cfg.serviceName).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.Status()).
				Dur("duration", time.Since(start)).
				Int("bytes", wrapped.BytesWritten()).
				Str("remote_addr", r.RemoteAddr)

			// RequestID may run inside this middleware; read the echoed header.
			if requestID := wrapped.Header().Get(RequestIDHeader); requestID != "" {
				event.Str("request_id", requestID)
			}

			event.Msg("request completed")
		})
	}
}
