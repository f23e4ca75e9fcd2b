package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gamemod/support-desk/internal/adapters/primary/dto"
	"github.com/gamemod/support-desk/internal/core/ports"
)

const readinessTimeout = 5 * time.Second

// HealthHandler handles health check requests
type HealthHandler struct {
	storage   ports.HealthChecker
	backend   string
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(storage ports.HealthChecker, backend, version string) *HealthHandler {
	return &HealthHandler{
		storage:   storage,
		backend:   backend,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HandleLiveness reports that the process is up. It never touches storage.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteOK(w, HealthResponse{
		Status:    "ok",
		Timestamp: dto.FormatTime(time.Now()),
	})
}

// HandleReadiness reports whether the storage backend answers.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	storage := h.checkStorage(ctx)
	status, code := "ok", http.StatusOK
	if storage.Status != "ok" {
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	WriteJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: dto.FormatTime(time.Now()),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    map[string]Check{"storage": storage},
	})
}

func (h *HealthHandler) checkStorage(ctx context.Context) Check {
	if h.storage == nil {
		return Check{Status: "unavailable", Message: "Storage not configured"}
	}

	start := time.Now()
	err := h.storage.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unavailable",
			Backend: h.backend,
			Message: err.Error(),
			Latency: latency.String(),
		}
	}
	return Check{Status: "ok", Backend: h.backend, Latency: latency.String()}
}
