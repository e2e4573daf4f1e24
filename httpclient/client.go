package httpclient

import (
	"fmt"
	"net/http"
	"time"
)

// Client is an instrumented HTTP client with a fixed timeout and
// redirect policy. It is safe for concurrent use.
//
// Most callers obtain the process-wide instance through a Manager:
//
//	client, err := manager.Client()
//	resp, err := client.Do(req, httpclient.DefaultUserAgent(ua))
type Client struct {
	httpClient *http.Client
	config     *internalConfig
}

// New builds a Client. It fails when the configuration is invalid or the
// system trust store cannot be loaded.
func New(opts ...Option) (*Client, error) {
	return newClient(newConfig(opts...))
}

func newClient(cfg *internalConfig) (*Client, error) {
	if err := cfg.httpConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	base := cfg.Transport
	if base == nil {
		transport, err := cfg.buildTransport()
		if err != nil {
			return nil, err
		}
		base = transport
	}

	return &Client{
		httpClient: &http.Client{
			Transport:     newOtelTransport(base, cfg),
			Timeout:       cfg.httpConfig.Timeout,
			CheckRedirect: redirectPolicy(cfg.httpConfig.MaxRedirects),
		},
		config: cfg,
	}, nil
}

// redirectPolicy follows at most limit redirects, then fails the request.
func redirectPolicy(limit int) func(*http.Request, []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		if limit == 0 {
			return http.ErrUseLastResponse
		}
		if len(via) > limit {
			return fmt.Errorf("stopped after %d redirects: %w", limit, errRedirectLimit)
		}
		return nil
	}
}

// HTTP returns the underlying *http.Client.
func (c *Client) HTTP() *http.Client {
	return c.httpClient
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.config.httpConfig
}

// Do applies interceptors to req in order and sends it. A non-nil error is
// either the interceptor's error or a *TransportError; HTTP error statuses
// are returned as responses. The caller must close the response body.
func (c *Client) Do(req *http.Request, interceptors ...RequestInterceptor) (*http.Response, error) {
	if err := applyInterceptors(req, interceptors); err != nil {
		return nil, fmt.Errorf("intercept request: %w", err)
	}

	if c.config.Debug {
		logRequest(c.config.Logger, req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind, errorType := classify(err)
		return nil, &TransportError{Kind: kind, Type: errorType, Err: err}
	}

	if c.config.Debug {
		logResponse(c.config.Logger, resp, time.Since(start))
	}
	return resp, nil
}
