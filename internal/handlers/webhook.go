package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/common/logging"
)

type webhookAck struct {
	Status     string    `json:"status"`
	Endpoint   string    `json:"endpoint"`
	Bytes      int       `json:"bytes"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// HandleWebhook accepts a delivery that passed the rate-limit middleware.
// @Summary Receive a webhook
// @Description Accepts a delivery for an endpoint. Callers are identified by X-User-ID or client IP and rate limited
// @Tags webhooks
// @Accept json
// @Produce json
// @Param endpoint path string true "Endpoint name"
// @Param X-User-ID header string false "Caller identity"
// @Success 202 {object} map[string]interface{} "Delivery accepted"
// @Failure 429 {object} map[string]interface{} "Rate limit exceeded"
// @Router /webhook/{endpoint} [post]
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	endpoint := mux.Vars(r)["endpoint"]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.sendError(w, r, errors.ValidationError("failed to read request body").WithContext("reason", err.Error()))
		return
	}

	h.logger.WithContext(r.Context()).Debug("Webhook received",
		logging.Field{Key: "endpoint", Value: endpoint},
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "bytes", Value: len(body)},
	)

	h.sendJSONResponse(w, http.StatusAccepted, webhookAck{
		Status:     "accepted",
		Endpoint:   endpoint,
		Bytes:      len(body),
		ReceivedAt: time.Now().UTC(),
	})
}
