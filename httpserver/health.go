package httpserver

import (
	"context"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Status              string `json:"status"`
	Latency             string `json:"latency"`
	Message             string `json:"message,omitempty"`
	LastChecked         string `json:"last_checked"`
	ConsecutiveSuccess  int    `json:"consecutive_successes,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures,omitempty"`
}

// HealthResponse is the /livez and /readyz payload.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime,omitempty"`
	Hostname  string                 `json:"hostname,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// PingResponse is the /ping payload.
type PingResponse struct {
	Status string `json:"status"`
}

type checkState struct {
	check               HealthCheck
	consecutiveSuccess  int
	consecutiveFailures int
}

// HealthHandler serves /ping, /livez and /readyz.
//
//	health := httpserver.NewHealthHandler(
//	    httpserver.WithHealthServiceName("readerbridge"),
//	    httpserver.WithVersion(version),
//	)
//	health.AddReadinessCheck("http_client", clientReady)
type HealthHandler struct {
	serviceName string
	version     string
	startTime   time.Time
	hostname    string

	mu              sync.Mutex
	livenessChecks  map[string]*checkState
	readinessChecks map[string]*checkState
}

// HealthOption configures the HealthHandler.
type HealthOption func(*HealthHandler)

// WithHealthServiceName sets the service name in health responses.
func WithHealthServiceName(name string) HealthOption {
	return func(h *HealthHandler) {
		h.serviceName = name
	}
}

// WithVersion sets the version in health responses.
func WithVersion(version string) HealthOption {
	return func(h *HealthHandler) {
		h.version = version
	}
}

// NewHealthHandler creates a HealthHandler with no checks.
func NewHealthHandler(opts ...HealthOption) *HealthHandler {
	hostname, _ := os.Hostname()

	h := &HealthHandler{
		serviceName:     "readerbridge",
		version:         "dev",
		startTime:       time.Now(),
		hostname:        hostname,
		livenessChecks:  make(map[string]*checkState),
		readinessChecks: make(map[string]*checkState),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddLivenessCheck registers a check run by /livez.
func (h *HealthHandler) AddLivenessCheck(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks[name] = &checkState{check: check}
}

// AddReadinessCheck registers a check run by /readyz.
func (h *HealthHandler) AddReadinessCheck(name string, check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks[name] = &checkState{check: check}
}

// PingHandler always answers 200 without running checks.
func (h *HealthHandler) PingHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, Response[PingResponse]{
			Data: PingResponse{Status: "pong"},
		})
	})
}

// LiveHandler answers 200 if every liveness check passes, 503 otherwise.
func (h *HealthHandler) LiveHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.handleHealthCheck(w, r, h.livenessChecks)
	})
}

// ReadyHandler answers 200 if every readiness check passes, 503 otherwise.
func (h *HealthHandler) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.handleHealthCheck(w, r, h.readinessChecks)
	})
}

func (h *HealthHandler) handleHealthCheck(w http.ResponseWriter, r *http.Request, checks map[string]*checkState) {
	ctx := r.Context()
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]CheckResult, len(checks))
	var errs []Error

	for _, name := range names {
		state := checks[name]

		start := time.Now()
		err := state.check(ctx)

		result := CheckResult{
			Latency:     time.Since(start).String(),
			LastChecked: now.Format(time.RFC3339),
		}

		if err != nil {
			state.consecutiveFailures++
			state.consecutiveSuccess = 0

			result.Status = "fail"
			result.Message = err.Error()
			result.ConsecutiveFailures = state.consecutiveFailures
			errs = append(errs, Error{Field: name, Message: err.Error()})
		} else {
			state.consecutiveSuccess++
			state.consecutiveFailures = 0

			result.Status = "ok"
			result.ConsecutiveSuccess = state.consecutiveSuccess
		}

		results[name] = result
	}

	status, statusCode, message := "ok", http.StatusOK, "all checks passed"
	if len(errs) > 0 {
		status, statusCode, message = "fail", http.StatusServiceUnavailable, "one or more checks failed"
	}

	WriteJSON(w, statusCode, Response[HealthResponse]{
		Data: HealthResponse{
			Status:    status,
			Service:   h.serviceName,
			Version:   h.version,
			Uptime:    time.Since(h.startTime).Round(time.Second).String(),
			Hostname:  h.hostname,
			Timestamp: now.Format(time.RFC3339),
			Checks:    results,
		},
		Errors:  errs,
		Message: message,
	})
}
