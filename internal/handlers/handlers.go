// Package handlers serves the limiter's HTTP API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/ratelimit"
	"webhook-ratelimiter/internal/storage"
)

// maxBodyBytes caps request bodies read by any handler.
const maxBodyBytes = 1 << 20

type Handlers struct {
	registry *ratelimit.Registry
	store    *storage.Guarded
	logger   logging.Logger
}

// New creates the handlers. store may be nil when the service runs without
// a durable tier.
func New(registry *ratelimit.Registry, store *storage.Guarded) *Handlers {
	return &Handlers{
		registry: registry,
		store:    store,
		logger:   logging.Component("handlers"),
	}
}

type errorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (h *Handlers) sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", err)
	}
}

// sendError maps an AppError type to a status code.
func (h *Handlers) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: "internal error"}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		resp.Error = appErr.Message
		resp.Code = appErr.Code
		switch appErr.Type {
		case errors.ErrTypeValidation:
			status = http.StatusBadRequest
			resp.Details = appErr.Context
		case errors.ErrTypeAuth:
			status = http.StatusUnauthorized
		case errors.ErrTypeConfig:
			status = http.StatusServiceUnavailable
		}
	}

	if status >= 500 {
		h.logger.WithContext(r.Context()).Error("Request failed", err, logging.Field{Key: "path", Value: r.URL.Path})
	}
	h.sendJSONResponse(w, status, resp)
}

func (h *Handlers) limiter(w http.ResponseWriter, r *http.Request) (*ratelimit.HybridLimiter, bool) {
	l := h.registry.Limiter()
	if l == nil {
		h.sendError(w, r, ratelimit.ErrNotInitialized)
		return nil, false
	}
	return l, true
}
