package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthChecker serves the engine health as JSON
type HealthChecker struct {
	mu         sync.RWMutex
	supervisor *HeartbeatSupervisor
	lastOrder  time.Time
	errors     []string
	maxErrors  int
}

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LastTick  time.Time `json:"last_tick"`
	LastGap   string    `json:"last_gap"`
	MaxGap    string    `json:"max_gap"`
	LastOrder time.Time `json:"last_order"`
	Uptime    string    `json:"uptime"`
	Errors    []string  `json:"errors,omitempty"`
}

func NewHealthChecker(supervisor *HeartbeatSupervisor) *HealthChecker {
	return &HealthChecker{
		supervisor: supervisor,
		errors:     make([]string, 0),
		maxErrors:  20,
	}
}

// RecordOrder notes the time of the last order handed to a sink
func (h *HealthChecker) RecordOrder(ts time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastOrder = ts
}

// RecordError keeps the most recent collaborator errors for display
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > h.maxErrors {
		h.errors = h.errors[len(h.errors)-h.maxErrors:]
	}
}

// Status builds the current health snapshot
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	lastTick, _ := h.supervisor.LastTick()
	status := "healthy"
	if h.supervisor.Health() == EngineDegraded {
		status = "degraded"
	}

	errs := make([]string, len(h.errors))
	copy(errs, h.errors)

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		LastTick:  lastTick,
		LastGap:   h.supervisor.LastGap().String(),
		MaxGap:    h.supervisor.MaxGap().String(),
		LastOrder: h.lastOrder,
		Uptime:    h.supervisor.Uptime().String(),
		Errors:    errs,
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}
