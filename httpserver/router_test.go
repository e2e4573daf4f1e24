package httpserver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/readerbridge/command"
	"github.com/kroma-labs/readerbridge/httpserver"
)

const testToken = "session-token"

type upperArgs struct {
	Text string `json:"text"`
}

func newTestRegistry(t *testing.T) *command.Registry {
	t.Helper()
	r := command.NewRegistry(zerolog.Nop())
	require.NoError(t, r.Register("upper", command.Typed(func(_ context.Context, args upperArgs) (string, error) {
		if args.Text == "" {
			return "", errors.New("Text is empty")
		}
		return strings.ToUpper(args.Text), nil
	})))
	require.NoError(t, r.Register("nothing", command.Typed(func(context.Context, struct{}) (any, error) {
		return nil, nil
	})))
	return r
}

func invoke(handler http.Handler, name, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/invoke/"+name, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(httpserver.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Invoke(t *testing.T) {
	t.Parallel()

	handler := httpserver.NewRouter(httpserver.RouterConfig{
		Commands: newTestRegistry(t),
		Token:    testToken,
	})

	tests := []struct {
		name       string
		command    string
		body       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "given valid call, then data envelope",
			command:    "upper",
			body:       `{"text":"feed"}`,
			token:      testToken,
			wantStatus: http.StatusOK,
			wantBody:   `{"data":"FEED"}`,
		},
		{
			name:       "given nil result, then data is null",
			command:    "nothing",
			body:       `{}`,
			token:      testToken,
			wantStatus: http.StatusOK,
			wantBody:   `{"data":null}`,
		},
		{
			name:       "given empty body, then zero arguments",
			command:    "nothing",
			token:      testToken,
			wantStatus: http.StatusOK,
			wantBody:   `{"data":null}`,
		},
		{
			name:       "given command failure, then error envelope with 200",
			command:    "upper",
			body:       `{"text":""}`,
			token:      testToken,
			wantStatus: http.StatusOK,
			wantBody:   `{"error":"Text is empty"}`,
		},
		{
			name:       "given unknown command, then 404",
			command:    "format_disk",
			body:       `{}`,
			token:      testToken,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "given malformed json, then 400",
			command:    "upper",
			body:       `{"text":`,
			token:      testToken,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "given wrongly typed arguments, then 400",
			command:    "upper",
			body:       `{"text":42}`,
			token:      testToken,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "given missing token, then 401",
			command:    "upper",
			body:       `{"text":"feed"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "given wrong token, then 401",
			command:    "upper",
			body:       `{"text":"feed"}`,
			token:      "guess",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := invoke(handler, tt.command, tt.body, tt.token)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRouter_Invoke_BodyLimit(t *testing.T) {
	t.Parallel()

	handler := httpserver.NewRouter(httpserver.RouterConfig{
		Commands:     newTestRegistry(t),
		Token:        testToken,
		MaxBodyBytes: 16,
	})

	rec := invoke(handler, "upper", `{"text":"`+strings.Repeat("a", 64)+`"}`, testToken)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouter_Invoke_StructuredResult(t *testing.T) {
	t.Parallel()

	type result struct {
		Status  uint16            `json:"status"`
		Headers map[string]string `json:"headers"`
	}

	r := command.NewRegistry(zerolog.Nop())
	require.NoError(t, r.Register("http_request", command.Typed(func(context.Context, struct{}) (result, error) {
		return result{Status: 404, Headers: map[string]string{"Etag": "x"}}, nil
	})))
	handler := httpserver.NewRouter(httpserver.RouterConfig{Commands: r, Token: testToken})

	rec := invoke(handler, "http_request", `{}`, testToken)

	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, uint16(404), env.Data.Status)
	assert.Equal(t, "x", env.Data.Headers["Etag"])
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()

	health := httpserver.NewHealthHandler()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	handler := httpserver.NewRouter(httpserver.RouterConfig{
		Commands: newTestRegistry(t),
		Token:    testToken,
		Health:   health,
		Metrics:  metrics,
	})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "given ping, then 200 without token", method: http.MethodGet, path: "/ping", wantStatus: http.StatusOK},
		{name: "given livez, then 200", method: http.MethodGet, path: "/livez", wantStatus: http.StatusOK},
		{name: "given readyz, then 200", method: http.MethodGet, path: "/readyz", wantStatus: http.StatusOK},
		{name: "given metrics, then 200", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "given unknown path, then 404", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
		{name: "given get on invoke, then 405", method: http.MethodGet, path: "/invoke/upper", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
