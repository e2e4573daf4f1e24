package httpserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/kroma-labs/readerbridge/command"
)

// DefaultMaxBodyBytes bounds /invoke argument objects.
const DefaultMaxBodyBytes = 16 << 20

// Invoker runs a named command. *command.Registry satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args []byte) (any, error)
}

// RouterConfig wires the bridge routes.
type RouterConfig struct {
	// Commands serves POST /invoke/{command}. Required.
	Commands Invoker

	// Token gates /invoke. Requests without it get 401.
	Token string

	// Health serves /ping, /livez and /readyz when set.
	Health *HealthHandler

	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

type router struct {
	commands     Invoker
	maxBodyBytes int64
}

// NewRouter returns the bridge handler:
//
//	POST /invoke/{command}   200 {"data": …} | 200 {"error": "…"} | 400 | 401 | 404
//	GET  /ping /livez /readyz
//	GET  /metrics
func NewRouter(cfg RouterConfig) http.Handler {
	rt := &router{
		commands:     cfg.Commands,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	if rt.maxBodyBytes <= 0 {
		rt.maxBodyBytes = DefaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if cfg.Health != nil {
		r.Method(http.MethodGet, "/ping", cfg.Health.PingHandler())
		r.Method(http.MethodGet, "/livez", cfg.Health.LiveHandler())
		r.Method(http.MethodGet, "/readyz", cfg.Health.ReadyHandler())
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(TokenAuth(TokenAuthConfig{Token: cfg.Token}))
		r.Post("/invoke/{command}", rt.invoke)
	})

	return r
}

func (rt *router) invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "command")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, rt.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "arguments too large")
			return
		}
		WriteError(w, http.StatusBadRequest, "failed to read arguments")
		return
	}

	if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
		WriteError(w, http.StatusBadRequest, "invalid arguments",
			Error{Field: "body", Message: "malformed JSON"})
		return
	}

	result, err := rt.commands.Invoke(r.Context(), name, body)
	switch {
	case err == nil:
		WriteResult(w, result)
	case errors.Is(err, command.ErrUnknownCommand):
		WriteError(w, http.StatusNotFound, "unknown command",
			Error{Field: "command", Message: name})
	case errors.Is(err, command.ErrInvalidArguments):
		WriteError(w, http.StatusBadRequest, "invalid arguments",
			Error{Field: "body", Message: err.Error()})
	default:
		WriteFailure(w, err.Error())
	}
}
