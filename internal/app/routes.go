package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"webhook-ratelimiter/internal/handlers"
	"webhook-ratelimiter/internal/middleware"
	"webhook-ratelimiter/internal/ratelimit"
)

// RouteOptions carries what SetupRoutes needs besides the handlers.
type RouteOptions struct {
	AuthMiddleware func(http.Handler) http.Handler
	Registry       *ratelimit.Registry
	// WebhookLimit is nil when webhook rate limiting is disabled
	WebhookLimit *middleware.RateLimitOptions
	Gatherer     prometheus.Gatherer
}

// SetupRoutes configures all HTTP routes for the application
func SetupRoutes(router *mux.Router, h *handlers.Handlers, opts RouteOptions) {
	router.Use(middleware.LoggingMiddleware)

	// Health check and metrics (no auth required)
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods("GET")

	// Swagger UI (no auth required)
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Check API used by other services
	api := router.PathPrefix("/api/ratelimit").Subrouter()
	api.HandleFunc("/check", h.CheckRateLimit).Methods("POST")

	// Admin endpoints
	admin := api.NewRoute().Subrouter()
	admin.Use(opts.AuthMiddleware)
	admin.HandleFunc("/stats", h.GetStats).Methods("GET")
	admin.HandleFunc("/cleanup", h.RunCleanup).Methods("POST")

	// Webhook deliveries, rate limited per caller
	var webhook http.Handler = http.HandlerFunc(h.HandleWebhook)
	if opts.WebhookLimit != nil {
		webhook = middleware.RateLimit(opts.Registry, *opts.WebhookLimit)(webhook)
	}
	router.Handle("/webhook/{endpoint}", webhook).Methods("POST", "PUT", "PATCH")
}
