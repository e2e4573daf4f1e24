package fetch_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/readerbridge/fetch"
	"github.com/kroma-labs/readerbridge/headerpolicy"
	"github.com/kroma-labs/readerbridge/httpclient"
)

func TestExecutor_CheckReachability(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantMsg string
	}{
		{name: "given 200, then ok message with status", status: http.StatusOK, wantMsg: "HTTP 200 OK"},
		{name: "given 503, then still reachable", status: http.StatusServiceUnavailable, wantMsg: "HTTP 503 Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUA string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUA = r.UserAgent()
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			exec := fetch.NewExecutor(
				fetch.WithClientSource(httpclient.NewManager()),
				fetch.WithProbeURL(server.URL+"/get"),
			)

			msg, err := exec.CheckReachability(context.Background())

			require.NoError(t, err)
			assert.Equal(t, "OK: "+server.URL+"/get → "+tt.wantMsg, msg)
			assert.NotEqual(t, headerpolicy.BrowserUserAgent, gotUA, "probe must use library default headers")
		})
	}
}

func TestExecutor_CheckReachability_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   fetch.Kind
		wantPrefix string
	}{
		{
			name:       "given dns failure, then connect failed with firewall hint",
			err:        errors.New("dial tcp: lookup httpbin.org: no such host"),
			wantKind:   fetch.KindConnectFailed,
			wantPrefix: "Connection failed (DNS or firewall?): ",
		},
		{
			name:       "given timeout, then timed out",
			err:        errors.New("i/o timeout"),
			wantKind:   fetch.KindTimedOut,
			wantPrefix: "Timeout: ",
		},
		{
			name:       "given malformed response, then tls/request error",
			err:        errors.New("net/http: HTTP/1.x transport connection broken: malformed HTTP response"),
			wantKind:   fetch.KindTransportFailed,
			wantPrefix: "TLS/Request error: ",
		},
		{
			name:       "given anything else, then network error",
			err:        errors.New("proxy said no"),
			wantKind:   fetch.KindOther,
			wantPrefix: "Network error: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			mock := httpclient.NewMockTransport().StubError(tt.err)
			exec := fetch.NewExecutor(
				fetch.WithClientSource(httpclient.NewManager(httpclient.WithMockTransport(mock))),
				fetch.WithLogger(zerolog.New(&logs)),
			)

			_, err := exec.CheckReachability(context.Background())

			assert.Equal(t, tt.wantKind, fetch.KindOf(err))
			assert.True(t, strings.HasPrefix(err.Error(), tt.wantPrefix), err.Error())
			assert.Equal(t, 1, mock.RequestCount())
			assert.Equal(t, fetch.DefaultProbeURL, mock.LastRequest().URL.String())
			assert.Contains(t, logs.String(), `"op":"probe"`)
		})
	}
}
