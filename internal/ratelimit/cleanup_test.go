package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/metrics"
	"webhook-ratelimiter/internal/models"
	"webhook-ratelimiter/internal/storage"
	"webhook-ratelimiter/internal/storage/memory"
)

func cleanupConfig() Config {
	cfg := testConfig()
	cfg.CleanupThreshold = time.Hour
	return cfg
}

func TestCleanup_DeletesIdleRecords(t *testing.T) {
	l, backend, clock := newMemoryLimiter(t, cleanupConfig())
	ctx := context.Background()

	l.CheckRequest(ctx, "old", time.Minute, 5, nil)
	clock.Advance(2 * time.Hour)
	l.CheckRequest(ctx, "fresh", time.Minute, 5, nil)

	stats := l.Cleanup(ctx)
	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 1, stats.Deleted)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 1, stats.L1Expired)

	rec, err := backend.Get(ctx, StoreKey("old"))
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = backend.Get(ctx, StoreKey("fresh"))
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestCleanup_WalksEveryPage(t *testing.T) {
	cfg := cleanupConfig()
	cfg.CleanupPageSize = 2
	cfg.CleanupConcurrency = 3
	l, backend, clock := newMemoryLimiter(t, cfg)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		l.CheckRequest(ctx, fmt.Sprintf("user-%d", i), time.Minute, 5, nil)
	}
	backend.PutRaw("health:probe:unrelated", []byte(`{}`), time.Minute)
	clock.Advance(3 * time.Hour)

	stats := l.Cleanup(ctx)
	assert.Equal(t, 7, stats.Scanned)
	assert.Equal(t, 7, stats.Deleted)

	keys, _, err := backend.List(ctx, KeyPrefix, 100, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, 1, backend.Len())
}

func TestCleanup_KeepsRecordsTouchedInL1(t *testing.T) {
	l, backend, clock := newMemoryLimiter(t, cleanupConfig())
	ctx := context.Background()

	l.CheckRequest(ctx, "k", time.Minute, 5, nil)
	clock.Advance(2 * time.Hour)

	// a newer copy only L1 knows about
	rec, ok := l.cache.Get(StoreKey("k"))
	require.False(t, ok)
	rec, err := backend.Get(ctx, StoreKey("k"))
	require.NoError(t, err)
	rec.LastAccess = clock.Now().UnixMilli()
	l.cache.Set(StoreKey("k"), rec)

	stats := l.Cleanup(ctx)
	assert.Equal(t, 0, stats.Deleted)

	stored, err := backend.Get(ctx, StoreKey("k"))
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

// interleavingStore runs hook once, right after the next Get returns.
type interleavingStore struct {
	storage.DurableStore
	hook func()
}

func (s *interleavingStore) Get(ctx context.Context, key string) *models.RateLimitRecord {
	rec := s.DurableStore.Get(ctx, key)
	if hook := s.hook; hook != nil {
		s.hook = nil
		hook()
	}
	return rec
}

func TestCleanup_KeepsRecordRewrittenDuringSweep(t *testing.T) {
	cfg := cleanupConfig()
	cfg.L1MaxSize = 0

	backend := memory.New(time.Minute)
	t.Cleanup(func() { backend.Close() })
	clock := newFakeClock()
	store := &interleavingStore{
		DurableStore: storage.Guard(backend, storage.GuardOptions{Name: "memory", Logger: logging.NopLogger{}}),
	}
	l := NewHybridLimiter(store, cfg, WithClock(clock.Now), WithLogger(logging.NopLogger{}))
	t.Cleanup(l.Close)
	ctx := context.Background()

	l.CheckRequest(ctx, "k", time.Minute, 5, nil)
	clock.Advance(2 * time.Hour)

	// the sweep reads the idle record, then a check lands before the delete
	store.hook = func() {
		res := l.CheckRequest(ctx, "k", time.Minute, 5, nil)
		assert.True(t, res.Allowed)
	}

	stats := l.Cleanup(ctx)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 0, stats.Deleted)

	rec, err := backend.Get(ctx, StoreKey("k"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, clock.Now().UnixMilli(), rec.LastAccess)
}

func TestCleanup_SkipsVanishedRecords(t *testing.T) {
	l, backend, _ := newMemoryLimiter(t, cleanupConfig())

	backend.PutRaw(StoreKey("garbage"), []byte("%%%"), time.Minute)

	stats := l.Cleanup(context.Background())
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Deleted)
}

func TestCleanup_MemoryOnly(t *testing.T) {
	clock := newFakeClock()
	l := NewHybridLimiter(nil, cleanupConfig(), WithClock(clock.Now), WithLogger(logging.NopLogger{}))
	defer l.Close()

	l.CheckRequest(context.Background(), "a", time.Second, 1, nil)
	l.CheckRequest(context.Background(), "b", time.Second, 1, nil)
	clock.Advance(time.Hour)

	stats := l.Cleanup(context.Background())
	assert.Equal(t, 2, stats.L1Expired)
	assert.Equal(t, 0, stats.Scanned)
	assert.Equal(t, 0, l.Stats().Cache.Size)
}

func TestCleanup_StoreDown(t *testing.T) {
	counters := metrics.NewCounters()
	l, _ := newFailingLimiter(t, counters)

	var stats CleanupStats
	assert.NotPanics(t, func() {
		stats = l.Cleanup(context.Background())
	})
	assert.Equal(t, 0, stats.Scanned)
	assert.Equal(t, uint64(1), counters.Snapshot().KVErrors["list"])
}

func TestCleanup_CanceledContext(t *testing.T) {
	l, _, clock := newMemoryLimiter(t, cleanupConfig())

	l.CheckRequest(context.Background(), "k", time.Minute, 1, nil)
	clock.Advance(2 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := l.Cleanup(ctx)
	assert.Equal(t, 0, stats.Scanned)
}

func TestStartStop(t *testing.T) {
	cfg := cleanupConfig()
	cfg.CleanupInterval = time.Second
	l, backend, clock := newMemoryLimiter(t, cfg)
	ctx := context.Background()

	l.CheckRequest(ctx, "idle", time.Minute, 1, nil)
	clock.Advance(2 * time.Hour)

	require.NoError(t, l.Start())
	first := l.scheduler
	require.NoError(t, l.Start())
	assert.Same(t, first, l.scheduler)

	require.Eventually(t, func() bool {
		rec, err := backend.Get(ctx, StoreKey("idle"))
		return err == nil && rec == nil
	}, 5*time.Second, 50*time.Millisecond)

	l.Stop()
	l.Stop()
	assert.Nil(t, l.scheduler)
}

func TestStart_DisabledInterval(t *testing.T) {
	l, _, _ := newMemoryLimiter(t, testConfig())

	require.NoError(t, l.Start())
	assert.Nil(t, l.scheduler)
	l.Stop()
}
