package httpserver

import (
	"crypto/subtle"
	"errors"
	"net/http"
)

// TokenHeader carries the per-session bridge token.
const TokenHeader = "X-Bridge-Token"

// ErrInvalidToken is reported when the token is missing or wrong.
// Intentionally generic.
var ErrInvalidToken = errors.New("invalid token")

// TokenAuthConfig configures the token gate.
type TokenAuthConfig struct {
	// Token is the expected value. An empty Token rejects every request.
	Token string

	// Header is the header name.
	// Default: X-Bridge-Token
	Header string
}

// TokenAuth returns middleware that requires the session token on every
// request. Preflight requests pass through so CORS can answer them.
//
//	r.With(httpserver.TokenAuth(httpserver.TokenAuthConfig{Token: token})).
//	    Post("/invoke/{command}", invoke)
func TokenAuth(cfg TokenAuthConfig) Middleware {
	if cfg.Header == "" {
		cfg.Header = TokenHeader
	}
	expected := []byte(cfg.Token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if err := checkToken(expected, r.Header.Get(cfg.Header)); err != nil {
				WriteError(w, http.StatusUnauthorized, "unauthorized",
					Error{Field: "auth", Message: err.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func checkToken(expected []byte, got string) error {
	if len(expected) == 0 || got == "" {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare(expected, []byte(got)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
