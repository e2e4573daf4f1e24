package httpclient

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterceptors(t *testing.T) {
	tests := []struct {
		name         string
		initial      http.Header
		interceptors []RequestInterceptor
		want         http.Header
	}{
		{
			name:         "given no user agent, then default is set",
			initial:      http.Header{},
			interceptors: []RequestInterceptor{DefaultUserAgent("ua/1")},
			want:         http.Header{"User-Agent": {"ua/1"}},
		},
		{
			name:         "given caller user agent, then default is not applied",
			initial:      http.Header{"User-Agent": {"mine"}},
			interceptors: []RequestInterceptor{DefaultUserAgent("ua/1")},
			want:         http.Header{"User-Agent": {"mine"}},
		},
		{
			name:         "given user agent interceptor, then overrides",
			initial:      http.Header{"User-Agent": {"mine"}},
			interceptors: []RequestInterceptor{UserAgentInterceptor("forced")},
			want:         http.Header{"User-Agent": {"forced"}},
		},
		{
			name:    "given header interceptor, then replaces values in order",
			initial: http.Header{"Accept": {"*/*"}},
			interceptors: []RequestInterceptor{
				HeaderInterceptor(http.Header{"Accept": {"text/html"}, "Accept-Language": {"en"}}),
				nil,
			},
			want: http.Header{"Accept": {"text/html"}, "Accept-Language": {"en"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
			req.Header = tt.initial

			require.NoError(t, applyInterceptors(req, tt.interceptors))
			assert.Equal(t, tt.want, req.Header)
		})
	}
}

func TestCurlCommand(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "https://api.example.com/v1/items?key=abc", nil)
	req.Header.Set("Xi-Api-Key", "secret")
	req.Header.Set("Accept", "*/*")

	got := curlCommand(req)

	assert.Equal(t, "curl -X POST 'https://api.example.com/v1/items' -H 'Accept: */*' -H 'Xi-Api-Key: ***'", got)
}

func TestClient_Do_DebugLogging(t *testing.T) {
	var buf bytes.Buffer
	mock := NewMockTransport().StubResponse(http.StatusOK, "ok")
	client, err := New(
		WithMockTransport(mock),
		WithDebug(true),
		WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)),
	)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/feed", nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, buf.String(), `"message":"HTTP request"`)
	assert.Contains(t, buf.String(), `"message":"HTTP response"`)
	assert.Contains(t, buf.String(), `"status":200`)
}
