package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records server-side request metrics.
type Metrics struct {
	serviceName     string
	skipPaths       map[string]bool
	requestDuration metric.Float64Histogram
	responseSize    metric.Int64Histogram
	activeRequests  metric.Int64UpDownCounter
	requestTotal    metric.Int64Counter
}

// MetricsConfig configures the metrics middleware.
type MetricsConfig struct {
	// MeterProvider defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider

	// serviceName is set internally by the server.
	serviceName string

	// SkipPaths are not recorded.
	SkipPaths []string

	// DurationBuckets are the request duration histogram bounds in seconds.
	DurationBuckets []float64
}

// DefaultMetricsConfig returns buckets sized for remote fetches, which
// commonly take hundreds of milliseconds and are capped at 30s.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterProvider: otel.GetMeterProvider(),
		DurationBuckets: []float64{
			0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
		},
	}
}

// NewMetrics creates the server instruments.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = DefaultMetricsConfig().DurationBuckets
	}

	meter := cfg.MeterProvider.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of bridge requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(cfg.DurationBuckets...),
	)
	if err != nil {
		return nil, err
	}

	responseSize, err := meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("Size of bridge response bodies in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight bridge requests"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of bridge requests"),
	)
	if err != nil {
		return nil, err
	}

	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return &Metrics{
		serviceName:     cfg.serviceName,
		skipPaths:       skipPaths,
		requestDuration: requestDuration,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
		requestTotal:    requestTotal,
	}, nil
}

// Middleware returns middleware that records the instruments. Requests
// routed by chi are labelled with the route pattern, so /invoke/{command}
// stays one series whatever command names callers send.
func (m *Metrics) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ctx := r.Context()

			rctx := chi.RouteContext(ctx)
			if rctx == nil {
				rctx = chi.NewRouteContext()
				r = r.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
			}

			attrs := []attribute.KeyValue{
				attribute.String("service.name", m.serviceName),
				attribute.String("http.request.method", r.Method),
			}

			m.activeRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
			defer m.activeRequests.Add(ctx, -1, metric.WithAttributes(attrs...))

			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			route := rctx.RoutePattern()
			if route == "" {
				route = "unmatched"
			}

			allAttrs := append(attrs[:len(attrs):len(attrs)],
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", wrapped.Status()))

			m.requestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(allAttrs...))
			m.responseSize.Record(ctx, int64(wrapped.BytesWritten()), metric.WithAttributes(allAttrs...))
			m.requestTotal.Add(ctx, 1, metric.WithAttributes(allAttrs...))
		})
	}
}
