package http

import (
	"context"
	"net/http"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker reports per-dependency readiness.
type HealthChecker interface {
	// Readiness returns dependency name → healthy.
	Readiness(ctx context.Context) map[string]bool
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime,omitempty"`
}

// handleHealth is a liveness-style check for load balancers.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: s.Uptime().Round(time.Second).String(),
	})
}

type readyResponse struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks,omitempty"`
}

// handleReady reports whether all dependencies answer.
// GET /ready
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{Status: "ready"}

	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp.Checks = s.deps.Health.Readiness(ctx)
		for _, ok := range resp.Checks {
			if !ok {
				resp.Status = "degraded"
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleLive always succeeds while the process can serve requests.
// GET /live
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "alive"})
}
