package fetch

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/kroma-labs/readerbridge/httpclient"
)

// OutgoingRequest is a caller-described HTTP request.
type OutgoingRequest struct {
	// Method is one of GET, POST, PUT, DELETE or PATCH in any letter case.
	Method string `json:"method"`

	URL string `json:"url"`

	// Headers are sent as given. Names are compared case-insensitively.
	Headers map[string]string `json:"headers"`

	// Body, when non-nil, is sent as the raw payload with no Content-Type
	// inferred.
	Body *string `json:"body,omitempty"`
}

// Response is the outcome of a Request, whatever its status code.
type Response struct {
	Status  uint16            `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

var supportedMethods = map[string]string{
	"GET":    http.MethodGet,
	"POST":   http.MethodPost,
	"PUT":    http.MethodPut,
	"DELETE": http.MethodDelete,
	"PATCH":  http.MethodPatch,
}

// Request performs the caller-described round trip. Unlike Fetch, no host
// header policy is applied and any status code is a successful result.
// Only a User-Agent is added, and only when the caller sent none.
func (e *Executor) Request(ctx context.Context, in OutgoingRequest) (*Response, error) {
	method, ok := supportedMethods[strings.ToUpper(in.Method)]
	if !ok {
		return nil, invalidInput(nil, "Unsupported HTTP method: %s", in.Method)
	}

	u, err := parseAbsoluteURL(in.URL)
	if err != nil {
		return nil, invalidURL(err)
	}

	header, err := buildHeader(in.Headers)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if in.Body != nil {
		body = strings.NewReader(*in.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, invalidURL(err)
	}
	req.Header = header

	client, err := e.client()
	if err != nil {
		return nil, err
	}

	e.logger.Debug().Str("method", method).Str("url", u.Redacted()).Msg("http request")

	resp, err := client.Do(req, httpclient.DefaultUserAgent(e.userAgent))
	if err != nil {
		fe := requestMessages.transportError(err)
		e.logTransportError("request", u, fe)
		return nil, fe
	}
	defer resp.Body.Close()

	out := &Response{
		Status:  uint16(resp.StatusCode),
		Headers: make(map[string]string, len(resp.Header)),
	}
	// Keys are canonical MIME form ("Content-Type"), not the casing on the wire.
	for name, values := range resp.Header {
		out.Headers[name] = headerText(values)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.logger.Warn().Err(err).Str("host", u.Host).Msg("failed to read response body")
		return nil, bodyReadError(err)
	}
	out.Body = decodeDeclared(raw, resp.Header.Get("Content-Type"))

	e.logger.Debug().Int("status", resp.StatusCode).Str("url", u.Redacted()).Msg("http response")
	return out, nil
}

// buildHeader validates caller headers against the wire format. Keys are
// checked in sorted order so the reported key is deterministic.
func buildHeader(in map[string]string) (http.Header, error) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := make(http.Header, len(in))
	for _, k := range keys {
		v := in[k]
		if !httpguts.ValidHeaderFieldName(k) {
			return nil, invalidInput(nil, "Invalid header name '%s': invalid HTTP header name", k)
		}
		if !httpguts.ValidHeaderFieldValue(v) {
			return nil, invalidInput(nil, "Invalid header value for '%s': failed to parse header value", k)
		}
		h.Set(k, v)
	}
	return h, nil
}
