package handlers

import (
	"net/http"
	"time"

	"webhook-ratelimiter/internal/health"
)

type healthResponse struct {
	Status       string         `json:"status"`
	Timestamp    time.Time      `json:"timestamp"`
	KVEnabled    bool           `json:"kvEnabled"`
	DurableStore *health.Report `json:"durableStore,omitempty"`
}

// HealthCheck round-trips a record through the durable tier. It answers 503 when the limiter is
// missing or a configured store cannot round-trip a record; the limiter
// keeps serving memory-only in that case.
// @Summary Health check
// @Description Reports limiter availability and durable store round-trip latency
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Failure 503 {object} map[string]interface{} "Limiter unavailable or durable store degraded"
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	}
	status := http.StatusOK

	l := h.registry.Limiter()
	if l == nil {
		resp.Status = "unavailable"
		h.sendJSONResponse(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.KVEnabled = l.KVEnabled()

	if h.store != nil {
		report := health.Probe(r.Context(), h.store.Backend())
		resp.DurableStore = &report
		if !report.Available {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	h.sendJSONResponse(w, status, resp)
}
