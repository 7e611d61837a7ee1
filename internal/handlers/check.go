package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/common/validation"
	"webhook-ratelimiter/internal/models"
)

// CheckRequest is the body of POST /api/ratelimit/check. Windows are capped
// at 365 days.
type CheckRequest struct {
	Identity    string `json:"identity" validate:"required,max=256,identity"`
	WindowMs    int64  `json:"window_ms" validate:"required,gte=1,lte=31536000000"`
	MaxRequests int    `json:"max_requests" validate:"gte=0"`
	// Metadata is checked by the limiter, which drops it when invalid.
	Metadata *models.Metadata `json:"metadata,omitempty" validate:"-"`
}

// CheckRateLimit records one request for an identity and returns the decision.
// A denial is a 200 with allowed=false.
// @Summary Check a rate limit
// @Description Records one request for an identity against a sliding window and returns whether it is allowed
// @Tags ratelimit
// @Accept json
// @Produce json
// @Param request body CheckRequest true "Identity, window and limit"
// @Success 200 {object} models.Result "Rate limit decision"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 503 {object} map[string]interface{} "Rate limiter not initialized"
// @Router /api/ratelimit/check [post]
func (h *Handlers) CheckRateLimit(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.sendError(w, r, errors.ValidationError("invalid JSON body").WithContext("reason", err.Error()))
		return
	}
	if err := validation.Default().Struct(&req); err != nil {
		h.sendError(w, r, err)
		return
	}

	window := time.Duration(req.WindowMs) * time.Millisecond
	result, err := h.registry.CheckRequest(r.Context(), req.Identity, window, req.MaxRequests, req.Metadata)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSONResponse(w, http.StatusOK, result)
}
