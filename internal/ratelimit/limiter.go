package ratelimit

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"webhook-ratelimiter/internal/common/cache"
	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/common/utils"
	"webhook-ratelimiter/internal/metrics"
	"webhook-ratelimiter/internal/models"
	"webhook-ratelimiter/internal/storage"
)

// HybridLimiter is a sliding-window limiter backed by an L1 memory cache and
// an optional durable store.
type HybridLimiter struct {
	cfg      Config
	store    storage.DurableStore
	cache    *cache.MemoryCache[*models.RateLimitRecord]
	locks    *keyLock
	counters *metrics.Counters
	sink     metrics.Sink
	metrics  metrics.Sink
	logger   logging.Logger
	now      func() time.Time

	// cleanup scheduling, see cleanup.go
	schedMu     sync.Mutex
	scheduler   *cron.Cron
	sweepCancel context.CancelFunc
	sweepMu     sync.Mutex
}

// Option configures a HybridLimiter.
type Option func(*HybridLimiter)

// WithClock replaces time.Now for both the limiter and its L1 cache.
func WithClock(now func() time.Time) Option {
	return func(l *HybridLimiter) {
		l.now = now
	}
}

// WithMetrics reports decisions to sink in addition to the limiter's
// counters.
func WithMetrics(sink metrics.Sink) Option {
	return func(l *HybridLimiter) {
		l.sink = sink
	}
}

// WithCounters replaces the counters behind Stats, so that a store guard
// reporting into the same counters shows up there too.
func WithCounters(c *metrics.Counters) Option {
	return func(l *HybridLimiter) {
		if c != nil {
			l.counters = c
		}
	}
}

func WithLogger(logger logging.Logger) Option {
	return func(l *HybridLimiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewHybridLimiter creates a limiter. A nil store runs it memory-only.
func NewHybridLimiter(store storage.DurableStore, cfg Config, opts ...Option) *HybridLimiter {
	l := &HybridLimiter{
		cfg:      cfg.withDefaults(),
		store:    store,
		locks:    newKeyLock(),
		counters: metrics.NewCounters(),
		logger:   logging.Component("ratelimit"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.metrics = l.counters
	if l.sink != nil {
		l.metrics = metrics.Multi{l.counters, l.sink}
	}
	l.cache = cache.NewMemoryCache[*models.RateLimitRecord](l.cfg.L1MaxSize, l.cfg.L1TTL, cache.WithClock[*models.RateLimitRecord](l.now))
	return l
}

// KVEnabled reports whether a durable store is attached.
func (l *HybridLimiter) KVEnabled() bool {
	return l.store != nil
}

// CheckRequest records a request for identity and decides whether it is
// within maxRequests per window. It never fails: durable store problems
// degrade the decision to memory-only and corrupt records start over.
func (l *HybridLimiter) CheckRequest(ctx context.Context, identity string, window time.Duration, maxRequests int, meta *models.Metadata) models.Result {
	started := time.Now()

	windowMs := utils.DurationMillis(window)
	if windowMs <= 0 {
		windowMs = 1
	}
	if maxRequests < 0 {
		maxRequests = 0
	}

	log := l.logger.WithContext(ctx)
	if err := meta.Validate(); err != nil {
		log.Warn("Dropping invalid request metadata",
			logging.String("identity", identity),
			logging.Err(err),
		)
		meta = nil
	}

	key := StoreKey(identity)
	unlock := l.locks.Lock(key)
	defer unlock()

	now := l.now().UnixMilli()
	rec, source := l.load(ctx, key, windowMs, maxRequests, now)

	if rec.Corrupted() {
		log.Warn("Resetting corrupted rate limit record",
			logging.String("key", key),
			logging.String("source", string(source)),
		)
		rec.ResetTimestamps()
	} else if !slices.IsSorted(rec.Timestamps) {
		slices.Sort(rec.Timestamps)
	}

	// the most recent caller's policy wins
	rec.WindowMs = windowMs
	rec.MaxRequests = maxRequests
	rec.Metadata = meta.Clone()

	rec.Timestamps = prune(rec.Timestamps, now-windowMs)

	allowed := false
	retryAfter := 0
	switch {
	case maxRequests == 0:
		retryAfter = utils.CeilSeconds(windowMs)
	case len(rec.Timestamps) < maxRequests:
		allowed = true
		rec.Timestamps = append(rec.Timestamps, now)
	case len(rec.Timestamps) > 0:
		retryAfter = utils.CeilSeconds(rec.Timestamps[0] + windowMs - now)
	default:
		retryAfter = utils.CeilSeconds(windowMs)
	}

	rec.LastAccess = now
	l.cache.Set(key, rec)
	if l.store != nil {
		l.store.Put(ctx, key, rec, l.recordTTL(windowMs))
	}

	resetBase := now
	if len(rec.Timestamps) > 0 {
		resetBase = rec.Timestamps[0]
	}

	if allowed {
		l.metrics.Allow()
	} else {
		l.metrics.Deny()
		log.Debug("Request denied",
			logging.String("identity", identity),
			logging.Int("max_requests", maxRequests),
			logging.Int64("window_ms", windowMs),
			logging.Int("retry_after", retryAfter),
		)
	}
	if o, ok := l.metrics.(metrics.CheckObserver); ok {
		o.ObserveCheck(time.Since(started))
	}

	return models.Result{
		Allowed:       allowed,
		RetryAfterSec: retryAfter,
		Remaining:     max(0, maxRequests-len(rec.Timestamps)),
		ResetTime:     resetBase + windowMs,
		Metadata: models.ResultMetadata{
			Source:    source,
			KVEnabled: l.store != nil,
		},
	}
}

// load returns the record for key from L1, then L2, or a fresh one.
func (l *HybridLimiter) load(ctx context.Context, key string, windowMs int64, maxRequests int, now int64) (*models.RateLimitRecord, models.Source) {
	if rec, ok := l.cache.Get(key); ok {
		l.metrics.L1Hit()
		return rec, models.SourceCache
	}
	if l.store != nil {
		if rec := l.store.Get(ctx, key); rec != nil {
			return rec, models.SourceKV
		}
	}
	return models.NewRecord(windowMs, maxRequests, now), models.SourceNew
}

func (l *HybridLimiter) recordTTL(windowMs int64) time.Duration {
	return time.Duration(windowMs)*time.Millisecond + l.cfg.KVTTLBuffer
}

// prune drops timestamps at or before cutoff. ts must be ascending.
func prune(ts []int64, cutoff int64) []int64 {
	i := 0
	for i < len(ts) && ts[i] <= cutoff {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

// Stats describes the limiter for operators.
type Stats struct {
	Cache     cache.CacheStats `json:"cache"`
	KVEnabled bool             `json:"kvEnabled"`
	Metrics   metrics.Snapshot `json:"metrics"`
}

func (l *HybridLimiter) Stats() Stats {
	return Stats{
		Cache:     l.cache.Stats(),
		KVEnabled: l.store != nil,
		Metrics:   l.counters.Snapshot(),
	}
}

// Close stops background cleanup and empties the L1 cache.
func (l *HybridLimiter) Close() {
	l.Stop()
	l.cache.Clear()
}
