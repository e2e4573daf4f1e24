package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithProxyURL(t *testing.T) {
	var proxied *url.URL
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = r.URL
		_, _ = io.WriteString(w, "via proxy")
	}))
	defer proxy.Close()

	proxyURL, err := url.Parse(proxy.URL)
	require.NoError(t, err)

	client, err := New(WithProxyURL(proxyURL))
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "http://feeds.example/rss.xml", nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, "via proxy", string(body))
	require.NotNil(t, proxied)
	assert.Equal(t, "feeds.example", proxied.Host)
	assert.Equal(t, "/rss.xml", proxied.Path)
}

func TestWithProxyFromEnvironment(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		wantProxy bool
	}{
		{name: "given defaults, then environment proxy honoured", wantProxy: true},
		{name: "given disabled, then no proxy", opts: []Option{WithProxyFromEnvironment(false)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.opts...)
			require.NoError(t, err)

			transport := unwrapTransport(client.HTTP().Transport)
			require.NotNil(t, transport)
			assert.Equal(t, tt.wantProxy, transport.Proxy != nil)
		})
	}
}

func TestWithTLSConfig(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	pool := x509.NewCertPool()
	pool.AddCert(server.Certificate())

	client, err := New(
		WithTLSConfig(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}),
		WithRootCAsLoader(func() (*x509.CertPool, error) {
			return nil, errors.New("trust store must not be loaded")
		}),
	)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestWithDisableNetworkTrace(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		wantConnect bool
	}{
		{name: "given defaults, then connect timing recorded", wantConnect: true},
		{name: "given disabled, then no phase events", opts: []Option{WithDisableNetworkTrace()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "ok")
			}))
			defer server.Close()

			tel := newTelemetry(t)
			client, err := New(append(tel.opts, tt.opts...)...)
			require.NoError(t, err)

			req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
			resp, err := client.Do(req)
			require.NoError(t, err)
			_, _ = io.Copy(io.Discard, resp.Body)
			require.NoError(t, resp.Body.Close())

			spans := tel.exporter.GetSpans()
			require.Len(t, spans, 1)
			var connect bool
			for _, ev := range spans[0].Events {
				if ev.Name == "connect.done" {
					connect = true
				}
			}
			assert.Equal(t, tt.wantConnect, connect)
		})
	}
}
