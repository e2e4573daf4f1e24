// Package fetch implements the outgoing request operations offered to the
// UI: fetching content, arbitrary HTTP round trips and a reachability probe.
// Every operation sends exactly one request through the shared client and
// reports failures as *Error.
package fetch

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/readerbridge/headerpolicy"
	"github.com/kroma-labs/readerbridge/httpclient"
)

// DefaultProbeURL is the endpoint checked by CheckReachability.
const DefaultProbeURL = "https://httpbin.org/get"

// ClientSource provides the shared HTTP client.
// *httpclient.Manager satisfies it.
type ClientSource interface {
	Client() (*httpclient.Client, error)
}

// Executor runs fetch operations. It is stateless apart from its
// dependencies and safe for concurrent use.
type Executor struct {
	clients   ClientSource
	resolver  *headerpolicy.Resolver
	userAgent string
	probeURL  string
	logger    zerolog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithClientSource sets where the shared client comes from.
// Default: httpclient.DefaultManager().
func WithClientSource(src ClientSource) Option {
	return func(e *Executor) {
		e.clients = src
	}
}

// WithResolver sets the header policy used by Fetch. Default: headerpolicy.Default().
func WithResolver(r *headerpolicy.Resolver) Option {
	return func(e *Executor) {
		e.resolver = r
	}
}

// WithDefaultUserAgent sets the User-Agent that Request injects when the
// caller sent none. Default: headerpolicy.BrowserUserAgent.
func WithDefaultUserAgent(ua string) Option {
	return func(e *Executor) {
		e.userAgent = ua
	}
}

// WithProbeURL overrides the endpoint checked by CheckReachability.
func WithProbeURL(u string) Option {
	return func(e *Executor) {
		e.probeURL = u
	}
}

// WithLogger sets the logger. Default: zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		clients:   httpclient.DefaultManager(),
		resolver:  headerpolicy.Default(),
		userAgent: headerpolicy.BrowserUserAgent,
		probeURL:  DefaultProbeURL,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) client() (*httpclient.Client, error) {
	c, err := e.clients.Client()
	if err != nil {
		e.logger.Error().Err(err).Msg("shared HTTP client unavailable")
		return nil, clientError(err)
	}
	return c, nil
}

// parseAbsoluteURL accepts only URLs with both a scheme and a host.
func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, urlErr.Err
		}
		return nil, err
	}
	switch {
	case u.Scheme == "":
		return nil, errors.New("relative URL without a base")
	case u.Host == "":
		return nil, errors.New("empty host")
	}
	return u, nil
}

func invalidURL(err error) *Error {
	return invalidInput(err, "Invalid URL: %v", err)
}

// drain discards what is left of body so the connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func (e *Executor) logTransportError(op string, u *url.URL, fe *Error) {
	e.logger.Warn().
		Str("op", op).
		Str("host", u.Host).
		Stringer("kind", fe.Kind).
		Err(fe.Err).
		Msg("request failed")
}
