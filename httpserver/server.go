package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// ErrNoHandler is returned by ListenAndServe and Serve when no handler was set.
var ErrNoHandler = errors.New("httpserver: handler is required (use WithHandler)")

// Server wraps http.Server with graceful shutdown, signal handling
// and lifecycle logging.
//
//	server := httpserver.New(
//	    httpserver.WithServiceName("readerbridge"),
//	    httpserver.WithHandler(router),
//	)
//
//	// Blocks until SIGTERM, SIGINT or ctx is done.
//	if err := server.ListenAndServe(ctx); err != nil {
//	    logger.Fatal().Err(err).Msg("server failed")
//	}
type Server struct {
	httpServer *http.Server
	config     Config
}

// New creates a Server. Built-in middleware is installed in the order
// tracing, metrics, logging, then anything passed to WithMiddleware.
func New(opts ...Option) *Server {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "readerbridge"
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	var middlewares []Middleware

	if cfg.TracingConfig != nil {
		tracingCfg := *cfg.TracingConfig
		tracingCfg.serviceName = cfg.ServiceName
		middlewares = append(middlewares, Tracing(tracingCfg))
	}

	if cfg.MetricsConfig != nil {
		metricsCfg := *cfg.MetricsConfig
		metricsCfg.serviceName = cfg.ServiceName
		metrics, err := NewMetrics(metricsCfg)
		if err != nil {
			cfg.Logger.Warn().Err(err).Msg("server metrics disabled")
		} else {
			middlewares = append(middlewares, metrics.Middleware())
		}
	}

	if cfg.LoggerConfig != nil {
		loggerCfg := *cfg.LoggerConfig
		loggerCfg.serviceName = cfg.ServiceName
		middlewares = append(middlewares, Logger(loggerCfg))
	}

	middlewares = append(middlewares, cfg.Middleware...)

	handler := cfg.Handler
	if handler != nil && len(middlewares) > 0 {
		handler = Chain(middlewares...)(handler)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		},
		config: cfg,
	}
}

// ListenAndServe listens on the configured address and blocks until
// shutdown. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.config.Handler == nil {
		return ErrNoHandler
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.config.Logger.Error().Err(err).Str("addr", s.httpServer.Addr).Msg("listen failed")
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until SIGTERM, SIGINT or ctx is done,
// then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.config.Handler == nil {
		_ = ln.Close()
		return ErrNoHandler
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(shutdownChan)

	serverErrChan := make(chan error, 1)

	go func() {
		s.config.Logger.Info().
			Str("addr", ln.Addr().String()).
			Str("service", s.config.ServiceName).
			Msg("server starting")

		err := s.httpServer.Serve(ln)
		// ErrServerClosed is expected during graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
		close(serverErrChan)
	}()

	select {
	case err := <-serverErrChan:
		if err != nil {
			s.config.Logger.Error().Err(err).Msg("server error")
			return err
		}
	case sig := <-shutdownChan:
		s.config.Logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
		s.config.Logger.Info().Err(ctx.Err()).Msg("context cancelled, shutting down")
	}

	return s.shutdown(context.WithoutCancel(ctx))
}

func (s *Server) shutdown(ctx context.Context) error {
	s.config.Logger.Info().Dur("timeout", s.config.ShutdownTimeout).Msg("starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.config.Logger.Error().Err(err).Msg("graceful shutdown failed, forcing close")
		if closeErr := s.httpServer.Close(); closeErr != nil {
			s.config.Logger.Error().Err(closeErr).Msg("force close failed")
		}
		return err
	}

	s.config.Logger.Info().Msg("server stopped gracefully")
	return nil
}

// Shutdown stops the server without waiting for a signal.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ServiceName returns the configured service name.
func (s *Server) ServiceName() string {
	return s.config.ServiceName
}
