package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"webhook-ratelimiter/internal/auth"
	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/config"
	"webhook-ratelimiter/internal/metrics"
	"webhook-ratelimiter/internal/ratelimit"
	"webhook-ratelimiter/internal/storage"
)

// App holds all the application dependencies
type App struct {
	Config   *config.Config
	Settings config.LimiterSettings
	// Store is nil when KV_BACKEND is none
	Store    *storage.Guarded
	Registry *ratelimit.Registry
	Auth     *auth.Auth
	Counters *metrics.Counters
	Metrics  *prometheus.Registry
	Logger   logging.Logger

	prometheus *metrics.Prometheus
	storage    *storage.Registry
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config:   cfg,
		Settings: cfg.Limiter(),
		Registry: ratelimit.NewRegistry(),
		Auth:     auth.New(cfg.JWTSecret),
		Counters: metrics.NewCounters(),
		Metrics:  prometheus.NewRegistry(),
		Logger:   logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
		storage:  newStorageRegistry(),
	}

	app.initializeMetrics()

	if err := app.initializeStorage(); err != nil {
		return nil, err
	}

	if err := app.initializeRateLimiter(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if !app.Auth.Enabled() {
		app.Logger.Warn("JWT_SECRET not set, admin routes are unauthenticated")
	}

	return app, nil
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	app.Registry.Dispose()
	if app.Store != nil {
		if err := app.Store.Backend().Close(); err != nil {
			app.Logger.Warn("Error closing durable store", logging.Err(err))
		}
	}
}
