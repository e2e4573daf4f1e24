package httpserver

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultAddr is the loopback address the bridge listens on.
const DefaultAddr = "127.0.0.1:47615"

// Config holds the loopback server configuration.
//
// Use DefaultConfig() and override fields as needed:
//
//	cfg := httpserver.DefaultConfig()
//	cfg.Addr = "127.0.0.1:0"
//
//	server := httpserver.New(
//	    httpserver.WithConfig(cfg),
//	    httpserver.WithHandler(router),
//	)
type Config struct {
	// Addr is the TCP address to listen on.
	// Default: 127.0.0.1:47615
	Addr string

	// ServiceName identifies the bridge in spans, metrics and request logs.
	// Default: "readerbridge"
	ServiceName string

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration

	// ReadHeaderTimeout is the maximum duration for reading request headers.
	// Default: 5s
	ReadHeaderTimeout time.Duration

	// WriteTimeout bounds the whole handler including the outgoing fetch.
	// It must exceed the shared client's overall timeout, otherwise a slow
	// but successful fetch cannot be delivered.
	// Default: 45s
	WriteTimeout time.Duration

	// IdleTimeout is the keep-alive idle limit.
	// Default: 60s
	IdleTimeout time.Duration

	// MaxHeaderBytes limits request header size.
	// Default: 1MB
	MaxHeaderBytes int

	// ShutdownTimeout is how long in-flight commands may run during
	// graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration

	// Logger receives lifecycle events.
	Logger zerolog.Logger

	// Middleware wraps the handler, outermost first.
	Middleware []Middleware

	// Handler serves requests. Required.
	Handler http.Handler

	// TracingConfig enables tracing. ServiceName is applied automatically.
	TracingConfig *TracingConfig

	// MetricsConfig enables metrics. ServiceName is applied automatically.
	MetricsConfig *MetricsConfig

	// LoggerConfig enables request logging. ServiceName is applied automatically.
	LoggerConfig *LoggerConfig
}

// DefaultConfig returns the loopback defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              DefaultAddr,
		ServiceName:       "readerbridge",
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ShutdownTimeout:   10 * time.Second,
		Logger:            zerolog.Nop(),
	}
}
