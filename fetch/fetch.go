package fetch

import (
	"context"
	"io"
	"net/http"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/kroma-labs/readerbridge/httpclient"
)

// Fetch GETs rawURL with the headers the resolver picks for its host and
// returns the body decoded to UTF-8. Any status outside 2xx is an
// *Error of KindHTTPStatus.
func (e *Executor) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := parseAbsoluteURL(rawURL)
	if err != nil {
		return "", invalidURL(err)
	}

	client, err := e.client()
	if err != nil {
		return "", err
	}

	policy, rule := e.resolver.ResolveRule(u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", invalidURL(err)
	}

	e.logger.Debug().Str("url", u.Redacted()).Str("policy", rule).Msg("fetching URL")

	resp, err := client.Do(req, httpclient.HeaderInterceptor(policy.Header()))
	if err != nil {
		fe := requestMessages.transportError(err)
		e.logTransportError("fetch", u, fe)
		return "", fe
	}

	e.logger.Debug().Int("status", resp.StatusCode).Str("url", u.Redacted()).Msg("fetch response")

	if !isSuccess(resp.StatusCode) {
		drain(resp.Body)
		e.logger.Warn().Int("status", resp.StatusCode).Str("host", u.Host).Msg("fetch returned error status")
		return "", statusError(resp.StatusCode)
	}
	defer resp.Body.Close()

	body, err := readDocument(resp)
	if err != nil {
		e.logger.Warn().Err(err).Str("host", u.Host).Msg("failed to read response body")
		return "", bodyReadError(err)
	}
	return body, nil
}

// readDocument reads a page or feed body and decodes it to UTF-8. A
// charset from Content-Type or a byte order mark always wins. Otherwise
// valid UTF-8 is kept as is, and only bodies that are not valid UTF-8 go
// through the HTML meta tag or the windows-1252 fallback.
func readDocument(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil || len(raw) == 0 {
		return "", err
	}

	enc, name, certain := charset.DetermineEncoding(raw, resp.Header.Get("Content-Type"))
	if !certain && utf8.Valid(raw) {
		return string(raw), nil
	}
	if name == "utf-8" {
		return toValidUTF8(raw), nil
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return toValidUTF8(raw), nil
	}
	return string(decoded), nil
}
