package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/metrics"
	"webhook-ratelimiter/internal/models"
	"webhook-ratelimiter/internal/storage"
	"webhook-ratelimiter/internal/storage/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// errBackend fails every call.
type errBackend struct{}

var errUnavailable = errors.New("dial tcp 10.0.0.7:6379: connect: connection refused")

func (errBackend) Get(context.Context, string) (*models.RateLimitRecord, error) {
	return nil, errUnavailable
}

func (errBackend) Put(context.Context, string, *models.RateLimitRecord, time.Duration) error {
	return errUnavailable
}

func (errBackend) Delete(context.Context, string) error {
	return errUnavailable
}

func (errBackend) List(context.Context, string, int, string) ([]string, string, error) {
	return nil, "", errUnavailable
}

func (errBackend) Health(context.Context) error {
	return errUnavailable
}

func (errBackend) Close() error {
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CleanupInterval = 0
	return cfg
}

// newMemoryLimiter returns a limiter over a guarded in-memory store.
func newMemoryLimiter(t *testing.T, cfg Config, opts ...Option) (*HybridLimiter, *memory.Store, *fakeClock) {
	t.Helper()

	backend := memory.New(time.Minute)
	t.Cleanup(func() { backend.Close() })

	clock := newFakeClock()
	store := storage.Guard(backend, storage.GuardOptions{Name: "memory", Logger: logging.NopLogger{}})

	opts = append([]Option{WithClock(clock.Now), WithLogger(logging.NopLogger{})}, opts...)
	l := NewHybridLimiter(store, cfg, opts...)
	t.Cleanup(l.Close)
	return l, backend, clock
}

func newFailingLimiter(t *testing.T, counters *metrics.Counters) (*HybridLimiter, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	store := storage.Guard(errBackend{}, storage.GuardOptions{
		Name:    "broken",
		Metrics: counters,
		Logger:  logging.NopLogger{},
	})
	l := NewHybridLimiter(store, testConfig(), WithClock(clock.Now), WithLogger(logging.NopLogger{}), WithCounters(counters))
	t.Cleanup(l.Close)
	return l, clock
}
