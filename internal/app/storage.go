package app

import (
	"fmt"
	"time"

	"webhook-ratelimiter/internal/circuitbreaker"
	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/common/utils"
	"webhook-ratelimiter/internal/config"
	"webhook-ratelimiter/internal/metrics"
	"webhook-ratelimiter/internal/storage"
	"webhook-ratelimiter/internal/storage/memory"
	"webhook-ratelimiter/internal/storage/rediskv"
	"webhook-ratelimiter/internal/storage/sqlstore"
)

func newStorageRegistry() *storage.Registry {
	registry := storage.NewRegistry()
	registry.Register(config.BackendMemory, memory.Factory{})
	registry.Register(config.BackendRedis, rediskv.Factory{})
	registry.Register(config.BackendSQLite, sqlstore.Factory{Dialect: sqlstore.DialectSQLite})
	registry.Register(config.BackendPostgres, sqlstore.Factory{Dialect: sqlstore.DialectPostgres})
	return registry
}

// backendConfig translates the environment into factory settings.
func (app *App) backendConfig() storage.GenericConfig {
	cfg := app.Config
	gc := storage.GenericConfig{"type": cfg.KVBackend}

	switch cfg.KVBackend {
	case config.BackendRedis:
		app.Logger.Info("Durable store: Redis", logging.String("address", cfg.RedisAddress))
		gc["address"] = cfg.RedisAddress
		gc["password"] = cfg.RedisPassword
		gc["db"] = cfg.RedisDBNumber()
		gc["pool_size"] = cfg.RedisPoolSizeNumber()
	case config.BackendSQLite:
		app.Logger.Info("Durable store: SQLite", logging.String("path", cfg.DatabasePath))
		gc["path"] = cfg.DatabasePath
	case config.BackendPostgres:
		app.Logger.Info("Durable store: PostgreSQL",
			logging.Field{Key: "host", Value: cfg.PostgresHost},
			logging.Field{Key: "port", Value: cfg.PostgresPort},
			logging.Field{Key: "database", Value: cfg.PostgresDB},
		)
		gc["dsn"] = cfg.PostgresDSN()
	default:
		app.Logger.Info("Durable store: in-process memory")
	}
	return gc
}

// initializeStorage connects the configured backend and guards it for the
// limiter. A backend that cannot be reached at boot keeps reconnecting in the
// background while the limiter serves from memory. KV_BACKEND=none leaves
// Store nil.
func (app *App) initializeStorage() error {
	if app.Config.KVBackend == config.BackendNone {
		app.Logger.Info("Durable store: disabled, limiter runs memory-only")
		return nil
	}

	gc := app.backendConfig()

	retry := utils.DefaultRetryConfig()
	retry.RetryableErrors = func(err error) bool {
		return errors.IsType(err, errors.ErrTypeConnection) || errors.IsType(err, errors.ErrTypeStore)
	}
	retry.OnRetry = func(attempt int, err error, next time.Duration) {
		app.Logger.Warn("Durable store connection failed, retrying",
			logging.Int("attempt", attempt),
			logging.Duration("backoff", next),
			logging.Err(err),
		)
	}

	backend, err := storage.Connect(func() (storage.Backend, error) {
		return app.storage.Create(app.Config.KVBackend, gc)
	}, retry, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", app.Config.KVBackend, err)
	}

	app.Store = storage.Guard(backend, storage.GuardOptions{
		Name:    app.Config.KVBackend,
		Timeout: app.Settings.KVOpTimeout,
		Breaker: circuitbreaker.DefaultConfig(),
		Metrics: metrics.Multi{app.Counters, app.prometheus},
	})
	return nil
}
