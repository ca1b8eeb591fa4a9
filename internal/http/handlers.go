package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"spese-insights/internal/auth"
	"spese-insights/internal/core"
	"spese-insights/internal/log"
)

// handleInsights serves GET /api/insights for the authenticated owner.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "Authentication required", Code: "unauthorized"})
		return
	}

	q := ParseInsightQuery(r.URL.Query())
	env, err := s.insights.Insights(ctx, id.ID, q)
	if err != nil {
		if core.KindOf(err) == core.KindInternal {
			// Classified faults are logged by the service.
			log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Error getting AI insights", err, log.OpGenerate,
				log.NewFields().WithInsightQuery(id.ID, q.StartDate, q.EndDate, q.Category))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady reports whether the expense store is reachable. The generator
// configuration is reported but does not affect readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	switch {
	case s.pinger == nil:
		checks["expense_store"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	default:
		if err := s.pinger.Ping(ctx); err != nil {
			checks["expense_store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["expense_store"] = "ok"
		}
	}

	if s.generator != nil {
		genStatus := "ok"
		if !s.generator.Configured() {
			genStatus = "missing_api_key"
		}
		checks["generator"] = map[string]any{
			"provider": s.generator.Provider(),
			"status":   genStatus,
		}
	}

	metrics := s.trace.GetMetrics()
	checks["requests"] = map[string]any{
		"total":                 metrics.TotalRequests,
		"last_response_time_us": metrics.LastResponseTime,
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
