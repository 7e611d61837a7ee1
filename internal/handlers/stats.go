package handlers

import (
	"net/http"

	"webhook-ratelimiter/internal/circuitbreaker"
	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/ratelimit"
)

type durableStoreStats struct {
	Backend string               `json:"backend"`
	Breaker circuitbreaker.Stats `json:"breaker"`
}

type statsResponse struct {
	Limiter      ratelimit.Stats    `json:"limiter"`
	DurableStore *durableStoreStats `json:"durableStore,omitempty"`
}

// GetStats reports cache, counter and circuit breaker state.
// @Summary Get limiter statistics
// @Description Returns L1 cache usage, decision counters and the durable store circuit breaker state
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Limiter statistics"
// @Failure 401 {object} map[string]interface{} "Missing or invalid token"
// @Failure 503 {object} map[string]interface{} "Rate limiter not initialized"
// @Router /api/ratelimit/stats [get]
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	l, ok := h.limiter(w, r)
	if !ok {
		return
	}

	resp := statsResponse{Limiter: l.Stats()}
	if h.store != nil {
		resp.DurableStore = &durableStoreStats{
			Backend: h.store.Name(),
			Breaker: h.store.BreakerStats(),
		}
	}
	h.sendJSONResponse(w, http.StatusOK, resp)
}

// RunCleanup runs one sweep now and returns its stats.
// @Summary Run cleanup
// @Description Deletes durable records idle past the cleanup threshold and drops expired cache entries
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ratelimit.CleanupStats "Sweep statistics"
// @Failure 401 {object} map[string]interface{} "Missing or invalid token"
// @Failure 503 {object} map[string]interface{} "Rate limiter not initialized"
// @Router /api/ratelimit/cleanup [post]
func (h *Handlers) RunCleanup(w http.ResponseWriter, r *http.Request) {
	l, ok := h.limiter(w, r)
	if !ok {
		return
	}
	stats := l.Cleanup(r.Context())
	h.logger.WithContext(r.Context()).Info("Manual cleanup finished",
		logging.Int("scanned", stats.Scanned),
		logging.Int("deleted", stats.Deleted),
	)
	h.sendJSONResponse(w, http.StatusOK, stats)
}
