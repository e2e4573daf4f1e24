package httpclient

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Manager owns a single lazily built Client. The first call to Client
// constructs it; every later or concurrent call observes the same instance.
// A construction error is returned to every caller for the manager's
// lifetime and is never retried.
type Manager struct {
	get   func() (*Client, error)
	ready atomic.Bool
}

// NewManager returns a Manager that builds its Client with opts on first use.
func NewManager(opts ...Option) *Manager {
	m := &Manager{}
	m.get = sync.OnceValues(func() (*Client, error) {
		return m.build(opts)
	})
	return m
}

func (m *Manager) build(opts []Option) (*Client, error) {
	cfg := newConfig(opts...)
	logger := cfg.Logger

	logger.Debug().Msg("initializing shared HTTP client")

	c, err := newClient(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("shared HTTP client initialization failed")
		return nil, fmt.Errorf("%w: %w", ErrClientInit, err)
	}

	hc := cfg.httpConfig
	pool := c.PoolStats()
	logger.Info().
		Dur("timeout", hc.Timeout).
		Dur("connect_timeout", hc.ConnectTimeout).
		Int("max_redirects", hc.MaxRedirects).
		Int("max_idle_conns", pool.MaxIdleConns).
		Int("max_idle_conns_per_host", pool.MaxIdleConnsPerHost).
		Msg("shared HTTP client initialized")

	m.ready.Store(true)
	return c, nil
}

// Client returns the shared client, building it on first use.
func (m *Manager) Client() (*Client, error) {
	return m.get()
}

// Ready reports whether the client has been built successfully.
// It never triggers construction.
func (m *Manager) Ready() bool {
	return m.ready.Load()
}

var defaultManager = NewManager(WithServiceName("readerbridge"))

// DefaultManager returns the package-level Manager used when no other is
// configured. It reads the global OpenTelemetry providers at first use.
func DefaultManager() *Manager {
	return defaultManager
}

// Shared returns the process-wide client held by DefaultManager.
func Shared() (*Client, error) {
	return defaultManager.Client()
}
