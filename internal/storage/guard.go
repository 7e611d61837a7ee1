package storage

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/time/rate"
	"webhook-ratelimiter/internal/circuitbreaker"
	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/metrics"
	"webhook-ratelimiter/internal/models"
)

// DefaultOpTimeout bounds each backend call when GuardOptions.Timeout is unset.
const DefaultOpTimeout = 250 * time.Millisecond

// GuardOptions configures Guard.
type GuardOptions struct {
	// Name identifies the backend in logs and breaker stats
	Name    string
	Timeout time.Duration
	Breaker circuitbreaker.Config
	Metrics metrics.Sink
	Logger  logging.Logger
}

// Guarded is a DurableStore over a Backend.
type Guarded struct {
	backend Backend
	name    string
	timeout time.Duration
	breaker *circuitbreaker.GoBreakerAdapter
	metrics metrics.Sink
	logger  logging.Logger
	openLog *rate.Limiter
}

var _ DurableStore = (*Guarded)(nil)

// Guard wraps backend so that no call can fail or block past the timeout.
// Calls run behind a circuit breaker; while it is open they return the
// neutral value without touching the backend.
func Guard(backend Backend, opts GuardOptions) *Guarded {
	if opts.Name == "" {
		opts.Name = "kv"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOpTimeout
	}
	if opts.Breaker == (circuitbreaker.Config{}) {
		opts.Breaker = circuitbreaker.DefaultConfig()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobalLogger()
	}
	logger := opts.Logger.WithFields(logging.String("component", "durable_store"), logging.String("backend", opts.Name))

	return &Guarded{
		backend: backend,
		name:    opts.Name,
		timeout: opts.Timeout,
		breaker: circuitbreaker.NewGoBreaker("kv-"+opts.Name, opts.Breaker, logger),
		metrics: opts.Metrics,
		logger:  logger,
		openLog: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

// Get returns the record for key, or nil on a miss or any failure.
func (g *Guarded) Get(ctx context.Context, key string) *models.RateLimitRecord {
	var rec *models.RateLimitRecord
	g.run(ctx, "get", key, func(ctx context.Context) error {
		var err error
		rec, err = g.backend.Get(ctx, key)
		return err
	})
	return rec
}

// Put writes rec under key; failures are logged and dropped.
func (g *Guarded) Put(ctx context.Context, key string, rec *models.RateLimitRecord, ttl time.Duration) {
	g.run(ctx, "put", key, func(ctx context.Context) error {
		return g.backend.Put(ctx, key, rec, ttl)
	})
}

// Delete removes key; failures are logged and dropped.
func (g *Guarded) Delete(ctx context.Context, key string) {
	g.run(ctx, "delete", key, func(ctx context.Context) error {
		return g.backend.Delete(ctx, key)
	})
}

// List returns a page of keys and the next cursor, or nothing on failure.
func (g *Guarded) List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string) {
	var keys []string
	var next string
	ok := g.run(ctx, "list", prefix, func(ctx context.Context) error {
		var err error
		keys, next, err = g.backend.List(ctx, prefix, limit, cursor)
		return err
	})
	if !ok {
		return []string{}, ""
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, next
}

// Health calls the backend directly, bypassing the breaker.
func (g *Guarded) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.backend.Health(ctx)
}

// Backend returns the wrapped backend.
func (g *Guarded) Backend() Backend {
	return g.backend
}

// Name returns the backend name.
func (g *Guarded) Name() string {
	return g.name
}

// BreakerStats reports the circuit breaker state.
func (g *Guarded) BreakerStats() circuitbreaker.Stats {
	return g.breaker.Stats()
}

// run executes fn with a per-call timeout that ignores the caller's
// cancellation, so a check is never cut short halfway through a write.
func (g *Guarded) run(ctx context.Context, op, key string, fn func(ctx context.Context) error) bool {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	err := g.breaker.Execute(opCtx, func() error {
		return fn(opCtx)
	})
	if err == nil {
		return true
	}

	log := g.logger.WithContext(ctx)
	switch {
	case errors.IsType(err, errors.ErrTypeCorruption):
		log.Warn("Discarding unreadable record",
			logging.String("op", op),
			logging.String("key", key),
			logging.Err(err),
		)
	case stderrors.Is(err, circuitbreaker.ErrOpen):
		g.metrics.KVError(op)
		if g.openLog.Allow() {
			log.Warn("Durable store unavailable, skipping call",
				logging.String("op", op),
				logging.String("breaker", g.breaker.State().String()),
			)
		}
	default:
		g.metrics.KVError(op)
		log.Error("Durable store operation failed", errors.StoreError(op, err),
			logging.String("op", op),
			logging.String("key", key),
		)
	}
	return false
}
