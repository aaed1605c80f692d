// Package health provides liveness and readiness endpoints.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/pitwall/internal/logger"
)

// Checker reports whether a dependency is ready to serve
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

type checkFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c checkFunc) Name() string                    { return c.name }
func (c checkFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckFunc adapts a function to Checker
func CheckFunc(name string, fn func(ctx context.Context) error) Checker {
	return checkFunc{name: name, fn: fn}
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Config holds the configuration for the health handler.
type Config struct {
	ServiceName  string
	Version      string
	Commit       string
	CheckTimeout time.Duration
	Logger       *logrus.Logger
	Checks       []Checker
}

// Handler serves /health, /live and /ready.
type Handler struct {
	serviceName  string
	version      string
	commit       string
	checkTimeout time.Duration
	logger       *logrus.Entry
	checks       []Checker

	mu    sync.RWMutex
	ready bool
}

// NewHandler creates a new health handler.
func NewHandler(cfg Config) *Handler {
	timeout := cfg.CheckTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Handler{
		serviceName:  cfg.ServiceName,
		version:      cfg.Version,
		commit:       cfg.Commit,
		checkTimeout: timeout,
		logger:       logger.OrDiscard(cfg.Logger).WithField("component", "health"),
		checks:       cfg.Checks,
	}
}

// SetReady marks the service as ready to accept traffic.
func (h *Handler) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady returns whether the service is marked ready.
func (h *Handler) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Mount registers the health routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/live", h.handleLive)
	r.Get("/ready", h.handleReady)
}

// handleHealth handles the /health endpoint - basic liveness check.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   h.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Commit:    h.commit,
	})
}

// handleLive handles the /live endpoint - kubernetes liveness probe.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: h.serviceName,
	})
}

// handleReady handles the /ready endpoint - runs every registered check.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if !h.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), h.checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			allHealthy = false
			checks[c.Name()] = "error: " + err.Error()
			h.logger.WithField("check", c.Name()).WithError(err).Debug("Readiness check failed")
			continue
		}
		checks[c.Name()] = "ok"
	}

	response := ReadyResponse{
		Service:  h.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}

	status := http.StatusOK
	response.Status = "ok"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		response.Status = "not_ready"
	}
	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
