package httpserver

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware. The first middleware is the outermost
// (runs first on request, last on response).
//
//	handler := httpserver.Chain(
//	    httpserver.Recovery(logger),
//	    httpserver.RequestID(),
//	)(router)
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		// Apply in reverse order so first middleware is outermost
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// DefaultMiddleware returns the stack every bridge handler runs behind:
// Recovery, RequestID, then CORS for the given origins.
func DefaultMiddleware(logger zerolog.Logger, allowedOrigins ...string) Middleware {
	cors := DefaultCORSConfig()
	if len(allowedOrigins) > 0 {
		cors.AllowedOrigins = allowedOrigins
	}

	return Chain(
		Recovery(logger),
		RequestID(),
		CORS(cors),
	)
}
