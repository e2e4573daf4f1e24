package httpclient

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// sensitiveHeaders are masked in debug output.
var sensitiveHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Xi-Api-Key":    true,
	"X-Api-Key":     true,
}

// curlCommand renders an equivalent cURL invocation without the body.
// Sensitive header values are masked.
//
//	curl -X POST 'https://api.example.com/v1/items' -H 'Accept: */*'
func curlCommand(req *http.Request) string {
	parts := []string{"curl"}
	if req.Method != http.MethodGet {
		parts = append(parts, "-X", req.Method)
	}
	parts = append(parts, fmt.Sprintf("'%s'", redactedURL(req)))

	names := make([]string, 0, len(req.Header))
	for k := range req.Header {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		for _, v := range req.Header[k] {
			if sensitiveHeaders[http.CanonicalHeaderKey(k)] {
				v = "***"
			}
			parts = append(parts, "-H", fmt.Sprintf("'%s: %s'", k, strings.ReplaceAll(v, "'", `'\''`)))
		}
	}
	return strings.Join(parts, " ")
}

func logRequest(logger zerolog.Logger, req *http.Request) {
	logger.Debug().
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("curl", curlCommand(req)).
		Msg("HTTP request")
}

func logResponse(logger zerolog.Logger, resp *http.Response, duration time.Duration) {
	logger.Debug().
		Int("status", resp.StatusCode).
		Str("proto", resp.Proto).
		Dur("duration", duration).
		Int64("content_length", resp.ContentLength).
		Msg("HTTP response")
}
