package httpserver

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Response is the wrapper for server-level responses: health, auth and
// routing errors.
//
//	{
//	  "errors": [{"field": "auth", "message": "invalid token"}],
//	  "message": "unauthorized"
//	}
type Response[T any] struct {
	Data    T       `json:"data,omitempty"`
	Errors  []Error `json:"errors,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Error is a single field-level error.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the /invoke success shape. Data may be null.
type Envelope struct {
	Data any `json:"data"`
}

// FailureEnvelope is the /invoke shape for a failed command.
type FailureEnvelope struct {
	Error string `json:"error"`
}

// WriteJSON encodes v with the given status. Encoding errors are only
// logged since the header is already written.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().
			Err(err).
			Int("status_code", statusCode).
			Msg("failed to encode JSON response")
	}
}

// WriteError writes a Response with a message and field errors.
func WriteError(w http.ResponseWriter, statusCode int, message string, errors ...Error) {
	WriteJSON(w, statusCode, Response[any]{
		Errors:  errors,
		Message: message,
	})
}

// WriteResult writes a successful command result.
func WriteResult(w http.ResponseWriter, result any) {
	WriteJSON(w, http.StatusOK, Envelope{Data: result})
}

// WriteFailure writes a command failure. Failures are still 200: the
// bridge worked, the command did not.
func WriteFailure(w http.ResponseWriter, text string) {
	WriteJSON(w, http.StatusOK, FailureEnvelope{Error: text})
}
