package app

import (
	"github.com/prometheus/client_golang/prometheus/collectors"
	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/metrics"
	"webhook-ratelimiter/internal/ratelimit"
	"webhook-ratelimiter/internal/storage"
)

func (app *App) initializeMetrics() {
	app.Metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.prometheus = metrics.NewPrometheus(app.Metrics)
	metrics.RegisterCacheSize(app.Metrics, func() int {
		if l := app.Registry.Limiter(); l != nil {
			return l.Stats().Cache.Size
		}
		return 0
	})
}

// initializeRateLimiter starts the limiter over the guarded store. Guard and
// limiter share one set of counters so the stats endpoint sees store errors.
func (app *App) initializeRateLimiter() error {
	var store storage.DurableStore
	if app.Store != nil {
		store = app.Store
	}

	cfg := ratelimit.ConfigFromSettings(app.Settings)
	_, err := app.Registry.Initialize(store, cfg,
		ratelimit.WithCounters(app.Counters),
		ratelimit.WithMetrics(app.prometheus),
	)
	if err != nil {
		return err
	}

	app.Logger.Info("Rate limiter initialized",
		logging.Field{Key: "kv_enabled", Value: store != nil},
		logging.Field{Key: "l1_max_size", Value: cfg.L1MaxSize},
		logging.Field{Key: "l1_ttl", Value: cfg.L1TTL.String()},
		logging.Field{Key: "cleanup_interval", Value: cfg.CleanupInterval.String()},
		logging.Field{Key: "cleanup_threshold", Value: cfg.CleanupThreshold.String()},
	)
	if app.Config.RateLimitEnabled {
		app.Logger.Info("Webhook rate limiting: Enabled",
			logging.Field{Key: "limit", Value: app.Settings.DefaultLimit},
			logging.Field{Key: "window", Value: app.Settings.DefaultWindow.String()},
		)
	}
	return nil
}
