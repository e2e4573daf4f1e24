package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/readerbridge/httpclient"
)

// =============================================================================
// Config - Client Behaviour
// =============================================================================

// Config holds the timeout, redirect and pool settings of a Client.
// It is applied once when the client is built and never changes afterwards.
//
// Example:
//
//	cfg := httpclient.DefaultConfig()
//	cfg.MaxIdleConnsPerHost = 8
//
//	client, err := httpclient.New(httpclient.WithConfig(cfg))
type Config struct {
	// =======================================================================
	// Timeouts
	// =======================================================================

	// Timeout bounds the whole request: connecting, sending, waiting for
	// headers and reading the body. Zero disables it.
	//
	// Default: 30s
	Timeout time.Duration

	// ConnectTimeout bounds connection establishment. It applies to the TCP
	// dial (DNS included) and, separately, to the TLS handshake.
	//
	// Default: 15s
	ConnectTimeout time.Duration

	// ExpectContinueTimeout is how long to wait for a 100-continue reply
	// when the request carries "Expect: 100-continue".
	//
	// Default: 1s
	ExpectContinueTimeout time.Duration

	// =======================================================================
	// Redirects
	// =======================================================================

	// MaxRedirects is the number of redirect hops followed before the
	// request fails. Zero disables following redirects; the 3xx response
	// is then returned as-is.
	//
	// Default: 10
	MaxRedirects int

	// =======================================================================
	// Connection Pool
	// =======================================================================

	// MaxIdleConns caps idle keep-alive connections across all hosts.
	// Feed refreshes touch many hosts, so this is kept well above
	// MaxIdleConnsPerHost.
	//
	// Default: 100
	MaxIdleConns int

	// MaxIdleConnsPerHost caps idle connections kept per host.
	//
	// Default: 10
	MaxIdleConnsPerHost int

	// MaxConnsPerHost caps total connections per host. Zero means no limit.
	//
	// Default: 0
	MaxConnsPerHost int

	// IdleConnTimeout closes idle connections after this long.
	//
	// Default: 90s
	IdleConnTimeout time.Duration

	// KeepAlive is the TCP keep-alive probe interval.
	//
	// Default: 30s
	KeepAlive time.Duration

	// FallbackDelay is the Happy Eyeballs delay before racing IPv4
	// against a slow IPv6 dial.
	//
	// Default: 300ms
	FallbackDelay time.Duration

	// ForceHTTP2 attempts HTTP/2 even with a custom TLS configuration.
	//
	// Default: true
	ForceHTTP2 bool
}

// DefaultConfig returns the configuration used for the shared client.
func DefaultConfig() Config {
	return Config{
		Timeout:               30 * time.Second,
		ConnectTimeout:        15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxRedirects: 10,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     0,
		IdleConnTimeout:     90 * time.Second,
		KeepAlive:           30 * time.Second,
		FallbackDelay:       300 * time.Millisecond,

		ForceHTTP2: true,
	}
}

// Validate reports configuration values that can never work.
func (c Config) Validate() error {
	var errs []error
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.ConnectTimeout < 0 {
		errs = append(errs, errors.New("connect timeout must not be negative"))
	}
	if c.MaxRedirects < 0 {
		errs = append(errs, errors.New("max redirects must not be negative"))
	}
	if c.MaxIdleConns < 0 || c.MaxIdleConnsPerHost < 0 || c.MaxConnsPerHost < 0 {
		errs = append(errs, errors.New("connection limits must not be negative"))
	}
	return errors.Join(errs...)
}

// =============================================================================
// Internal Configuration
// =============================================================================

// internalConfig combines Config with instrumentation and test hooks.
type internalConfig struct {
	httpConfig Config

	// === OpenTelemetry ===

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *metrics

	// ServiceName is added as "http.client.name" on spans and metrics.
	ServiceName string

	// EnableNetworkTrace records DNS, connect and TLS timing. Default: true
	EnableNetworkTrace bool

	// Propagator injects trace context into outgoing headers. Default: nil,
	// so destinations only see the headers the caller set.
	Propagator propagation.TextMapPropagator

	// === Transport ===

	// TLSConfig is cloned into the transport. RootCAs is filled from
	// LoadRootCAs when unset.
	TLSConfig *tls.Config

	// LoadRootCAs loads the trust store. Default: x509.SystemCertPool
	LoadRootCAs func() (*x509.CertPool, error)

	ProxyURL             *url.URL
	ProxyFromEnvironment bool

	// Transport replaces the pooled transport entirely. Used by tests.
	Transport http.RoundTripper

	// === Logging ===

	Logger zerolog.Logger

	// Debug logs every request and response at debug level.
	Debug bool
}

// newConfig creates the internal configuration with defaults.
func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		httpConfig:           DefaultConfig(),
		TracerProvider:       otel.GetTracerProvider(),
		MeterProvider:        otel.GetMeterProvider(),
		EnableNetworkTrace:   true,
		LoadRootCAs:          x509.SystemCertPool,
		ProxyFromEnvironment: true,
		Logger:               zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)

	// Instruments stay nil on failure; every record call is nil-safe.
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	return cfg
}

// buildTransport creates the pooled transport. It fails when the trust
// store cannot be loaded, since no HTTPS request could succeed without it.
func (cfg *internalConfig) buildTransport() (*http.Transport, error) {
	hc := cfg.httpConfig

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.TLSConfig != nil {
		tlsCfg = cfg.TLSConfig.Clone()
	}
	if tlsCfg.RootCAs == nil && cfg.LoadRootCAs != nil {
		pool, err := cfg.LoadRootCAs()
		if err != nil {
			return nil, fmt.Errorf("load system trust store: %w", err)
		}
		tlsCfg.RootCAs = pool
	}

	dialer := &net.Dialer{
		Timeout:       hc.ConnectTimeout,
		KeepAlive:     hc.KeepAlive,
		FallbackDelay: hc.FallbackDelay,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsCfg,
		TLSHandshakeTimeout:   hc.ConnectTimeout,
		MaxIdleConns:          hc.MaxIdleConns,
		MaxIdleConnsPerHost:   hc.MaxIdleConnsPerHost,
		MaxConnsPerHost:       hc.MaxConnsPerHost,
		IdleConnTimeout:       hc.IdleConnTimeout,
		ExpectContinueTimeout: hc.ExpectContinueTimeout,
		ForceAttemptHTTP2:     hc.ForceHTTP2,
	}

	if cfg.ProxyURL != nil {
		transport.Proxy = http.ProxyURL(cfg.ProxyURL)
	} else if cfg.ProxyFromEnvironment {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return transport, nil
}

// baseAttributes returns common attributes for all spans and metrics.
func (cfg *internalConfig) baseAttributes() []attribute.KeyValue {
	if cfg.ServiceName == "" {
		return nil
	}
	return []attribute.KeyValue{attribute.String("http.client.name", cfg.ServiceName)}
}

// =============================================================================
// Options
// =============================================================================

// Option configures a Client.
type Option func(*internalConfig)

// WithConfig replaces the default Config.
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithServiceName sets the "http.client.name" attribute on spans and metrics.
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.ServiceName = name
	}
}

// WithTracerProvider sets the TracerProvider. Default: otel.GetTracerProvider().
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		if tp != nil {
			cfg.TracerProvider = tp
		}
	}
}

// WithMeterProvider sets the MeterProvider. Default: otel.GetMeterProvider().
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		if mp != nil {
			cfg.MeterProvider = mp
		}
	}
}

// WithTLSConfig sets the TLS configuration of the pooled transport.
// When RootCAs is set the system trust store is not loaded.
func WithTLSConfig(tlsCfg *tls.Config) Option {
	return func(cfg *internalConfig) {
		cfg.TLSConfig = tlsCfg
	}
}

// WithRootCAsLoader overrides how the trust store is loaded.
func WithRootCAsLoader(load func() (*x509.CertPool, error)) Option {
	return func(cfg *internalConfig) {
		cfg.LoadRootCAs = load
	}
}

// WithProxyURL routes every request through proxyURL.
func WithProxyURL(proxyURL *url.URL) Option {
	return func(cfg *internalConfig) {
		cfg.ProxyURL = proxyURL
	}
}

// WithProxyFromEnvironment toggles HTTP_PROXY/HTTPS_PROXY/NO_PROXY support. Default: true
func WithProxyFromEnvironment(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.ProxyFromEnvironment = enabled
	}
}

// WithPropagator injects trace context with p on every outgoing request.
// Only use it for clients that talk to hosts inside the same trace.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(cfg *internalConfig) {
		cfg.Propagator = p
	}
}

// WithDisableNetworkTrace turns off DNS/connect/TLS timing collection.
func WithDisableNetworkTrace() Option {
	return func(cfg *internalConfig) {
		cfg.EnableNetworkTrace = false
	}
}

// WithTransport replaces the pooled transport with rt. Instrumentation,
// timeout and redirect policy still apply.
func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *internalConfig) {
		cfg.Transport = rt
	}
}

// WithMockTransport is WithTransport for a MockTransport.
func WithMockTransport(mock *MockTransport) Option {
	return WithTransport(mock)
}

// WithLogger sets the logger. Default: zerolog.Nop()
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.Logger = logger
	}
}

// WithDebug logs every request and response at debug level.
func WithDebug(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.Debug = enabled
	}
}
