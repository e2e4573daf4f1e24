package httpclient

import (
	"net/http"
)

// RequestInterceptor modifies a request before it is sent.
// Interceptors run in the order given to Client.Do.
type RequestInterceptor func(req *http.Request) error

func applyInterceptors(req *http.Request, interceptors []RequestInterceptor) error {
	for _, interceptor := range interceptors {
		if interceptor == nil {
			continue
		}
		if err := interceptor(req); err != nil {
			return err
		}
	}
	return nil
}

// HeaderInterceptor sets every header in h, replacing existing values.
func HeaderInterceptor(h http.Header) RequestInterceptor {
	return func(req *http.Request) error {
		for name, values := range h {
			req.Header.Del(name)
			for _, v := range values {
				req.Header.Add(name, v)
			}
		}
		return nil
	}
}

// UserAgentInterceptor sets the User-Agent header unconditionally.
func UserAgentInterceptor(userAgent string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("User-Agent", userAgent)
		return nil
	}
}

// DefaultUserAgent sets the User-Agent header only when the request has none.
func DefaultUserAgent(userAgent string) RequestInterceptor {
	return func(req *http.Request) error {
		if req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", userAgent)
		}
		return nil
	}
}
