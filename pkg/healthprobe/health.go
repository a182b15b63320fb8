// Package healthprobe serves the liveness and readiness endpoints.
// Liveness only proves the process is up; readiness flips once the
// odds pipeline is wired and reports any registered component probes.
package healthprobe

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Probe reports one component's readiness, e.g. "postgres" or a venue
// feed. A non-nil error marks the component (and the probe response)
// as degraded without flipping overall readiness.
type Probe func() error

// HealthChecker provides health and readiness checks.
type HealthChecker struct {
	startTime time.Time
	ready     atomic.Bool

	mu     sync.RWMutex
	probes map[string]Probe
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		probes:    make(map[string]Probe),
	}
}

// SetReady marks the pipeline as ready to trade.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Register adds a named component probe reported by the readiness
// endpoint. Re-registering a name replaces the probe.
func (h *HealthChecker) Register(name string, probe Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = probe
}

// ProbeResponse is the body of both endpoints.
type ProbeResponse struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime"`
	Components map[string]string `json:"components,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the process is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ProbeResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

// Ready returns an HTTP handler for readiness checks. Returns 200 OK
// once the pipeline is started, 503 Service Unavailable before that.
// Component probe failures are reported in the body but do not fail
// the endpoint: a dead venue feed degrades the bot, it does not make
// it unroutable.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, ProbeResponse{
				Status:  "not_ready",
				Uptime:  time.Since(h.startTime).String(),
				Message: "pipeline is starting",
			})
			return
		}

		writeJSON(w, http.StatusOK, ProbeResponse{
			Status:     "ready",
			Uptime:     time.Since(h.startTime).String(),
			Components: h.runProbes(),
		})
	}
}

func (h *HealthChecker) runProbes() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.probes) == 0 {
		return nil
	}

	out := make(map[string]string, len(h.probes))
	for name, probe := range h.probes {
		if err := probe(); err != nil {
			out[name] = "degraded: " + err.Error()
		} else {
			out[name] = "ok"
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, resp ProbeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
