// Package command is the dispatch boundary between the UI and native
// operations. Commands are registered by name, take a JSON argument object
// and return a JSON-encodable result. Failures cross the boundary as plain
// text only.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

var (
	// ErrUnknownCommand is returned by Invoke for unregistered names.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidArguments is returned when the argument object cannot be decoded.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// Handler executes one command with its raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Failure is a command error as seen by the UI: the command name and a
// human-readable message.
type Failure struct {
	Command string
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// failf builds a Failure whose message is shown to the user verbatim.
// These read as sentences, so they start with a capital letter.
func failf(err error, format string, args ...any) *Failure {
	return &Failure{Message: fmt.Sprintf(format, args...), Err: err}
}

// Registry maps command names to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   zerolog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register adds a handler. Registering a name twice is an error.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" || h == nil {
		return errors.New("command: name and handler are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("command: %q already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named command. The caller's cancellation is not passed
// on: once dispatched, a command runs until it completes or its own
// timeouts fire. Context values such as the trace span still propagate.
//
// Errors are ErrUnknownCommand, ErrInvalidArguments (wrapped) or a
// *Failure carrying the text shown to the user.
func (r *Registry) Invoke(ctx context.Context, name string, args []byte) (any, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	start := time.Now()
	logger := r.logger.With().Str("command", name).Logger()
	logger.Debug().Msg("invoking command")

	result, err := h(context.WithoutCancel(ctx), args)
	if err != nil {
		if errors.Is(err, ErrInvalidArguments) {
			logger.Warn().Err(err).Msg("command rejected arguments")
			return nil, err
		}
		logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("command failed")
		var f *Failure
		if errors.As(err, &f) {
			return nil, &Failure{Command: name, Message: f.Message, Err: f.Err}
		}
		return nil, &Failure{Command: name, Message: err.Error(), Err: err}
	}

	logger.Debug().Dur("duration", time.Since(start)).Msg("command completed")
	return result, nil
}

// Typed adapts a function taking decoded arguments to a Handler.
// Empty or null arguments decode to the zero value of A.
func Typed[A, R any](fn func(ctx context.Context, args A) (R, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
			}
		}
		return fn(ctx, args)
	}
}
