package httpserver_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/kroma-labs/readerbridge/httpserver"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) httpserver.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := httpserver.Chain(mark("first"), mark("second"))(okHandler)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestTokenAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured string
		method     string
		sent       string
		wantStatus int
	}{
		{name: "given matching token, then proceeds", configured: "abc", method: http.MethodPost, sent: "abc", wantStatus: http.StatusOK},
		{name: "given missing token, then 401", configured: "abc", method: http.MethodPost, wantStatus: http.StatusUnauthorized},
		{name: "given prefix of token, then 401", configured: "abc", method: http.MethodPost, sent: "ab", wantStatus: http.StatusUnauthorized},
		{name: "given no configured token, then everything rejected", method: http.MethodPost, sent: "", wantStatus: http.StatusUnauthorized},
		{name: "given preflight, then passes through", configured: "abc", method: http.MethodOptions, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := httpserver.TokenAuth(httpserver.TokenAuthConfig{Token: tt.configured})(okHandler)

			req := httptest.NewRequest(tt.method, "/invoke/x", nil)
			if tt.sent != "" {
				req.Header.Set(httpserver.TokenHeader, tt.sent)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	handler := httpserver.CORS(httpserver.DefaultCORSConfig())(okHandler)

	t.Run("given allowed origin preflight, then 204 with allow headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/invoke/fetch_url", nil)
		req.Header.Set("Origin", "tauri://localhost")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "tauri://localhost", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), httpserver.TokenHeader)
	})

	t.Run("given unknown origin, then no allow origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/invoke/fetch_url", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("given wildcard config, then any origin echoed", func(t *testing.T) {
		cfg := httpserver.DefaultCORSConfig()
		cfg.AllowedOrigins = []string{"*"}
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()

		httpserver.CORS(cfg)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := httpserver.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = httpserver.RequestIDFromContext(r.Context())
	}))

	t.Run("given no header, then generates one", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get(httpserver.RequestIDHeader))
	})

	t.Run("given header, then forwards it", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(httpserver.RequestIDHeader, "req-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "req-1", seen)
		assert.Equal(t, "req-1", rec.Header().Get(httpserver.RequestIDHeader))
	})

	assert.Empty(t, httpserver.RequestIDFromContext(context.Background()))
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	handler := httpserver.Recovery(zerolog.New(&logs))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoke/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.Contains(t, logs.String(), "panic recovered")
	assert.Contains(t, logs.String(), `"panic":"boom"`)
}

func TestLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
		wantEmpty bool
	}{
		{name: "given 200, then info", path: "/invoke/a", status: http.StatusOK, wantLevel: `"level":"info"`},
		{name: "given 404, then warn", path: "/invoke/a", status: http.StatusNotFound, wantLevel: `"level":"warn"`},
		{name: "given 500, then error", path: "/invoke/a", status: http.StatusInternalServerError, wantLevel: `"level":"error"`},
		{name: "given skipped path, then nothing logged", path: "/livez", status: http.StatusOK, wantEmpty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			handler := httpserver.Chain(
				httpserver.Logger(httpserver.LoggerConfig{Logger: zerolog.New(&logs), SkipPaths: []string{"/livez"}}),
				httpserver.RequestID(),
			)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			req.Header.Set(httpserver.RequestIDHeader, "req-42")
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantEmpty {
				assert.Empty(t, logs.String())
				return
			}
			assert.Contains(t, logs.String(), tt.wantLevel)
			assert.Contains(t, logs.String(), `"request_id":"req-42"`)
			assert.Contains(t, logs.String(), `"path":"`+tt.path+`"`)
		})
	}
}

func TestTracing(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	var inner trace.SpanContext
	handler := httpserver.Tracing(httpserver.TracingConfig{
		TracerProvider: tp,
		SkipPaths:      []string{"/ping"},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/invoke/fetch_url", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP POST /invoke/fetch_url", spans[0].Name)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
	assert.Equal(t, spans[0].SpanContext.SpanID(), inner.SpanID())
	assert.Equal(t, "Bad Gateway", spans[0].Status.Description)
}

func TestMetrics_RouteLabel(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := httpserver.NewMetrics(httpserver.MetricsConfig{MeterProvider: mp})
	require.NoError(t, err)

	handler := metrics.Middleware()(httpserver.NewRouter(httpserver.RouterConfig{
		Commands: newTestRegistry(t),
		Token:    testToken,
	}))

	for _, name := range []string{"upper", "nothing", "unknown_1", "unknown_2"} {
		invoke(handler, name, `{"text":"x"}`, testToken)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	routes := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http.server.request.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value("http.route")
				routes[route.AsString()] = true
			}
		}
	}

	assert.Equal(t, map[string]bool{"/invoke/{command}": true}, routes)
}
