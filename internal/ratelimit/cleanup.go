package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/common/logging"
)

// CleanupStats summarizes one sweep.
type CleanupStats struct {
	// Scanned counts durable keys listed under KeyPrefix.
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	// Skipped counts keys whose record was gone or unreadable when fetched.
	Skipped   int           `json:"skipped"`
	L1Expired int           `json:"l1Expired"`
	Duration  time.Duration `json:"duration"`
}

// Cleanup deletes durable records idle for longer than CleanupThreshold and
// drops expired L1 entries. It never fails; a store that cannot be reached
// simply yields nothing to sweep. Concurrent calls return immediately with
// empty stats while a sweep is running.
func (l *HybridLimiter) Cleanup(ctx context.Context) CleanupStats {
	if !l.sweepMu.TryLock() {
		l.logger.Debug("Cleanup already running, skipping")
		return CleanupStats{}
	}
	defer l.sweepMu.Unlock()

	start := time.Now()
	stats := CleanupStats{L1Expired: l.cache.Cleanup()}
	if l.store == nil {
		stats.Duration = time.Since(start)
		return stats
	}

	threshold := l.cfg.CleanupThreshold.Milliseconds()
	var scanned, deleted, skipped atomic.Int64

	cursor := ""
	for ctx.Err() == nil {
		keys, next := l.store.List(ctx, KeyPrefix, l.cfg.CleanupPageSize, cursor)
		scanned.Add(int64(len(keys)))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(l.cfg.CleanupConcurrency)
		for _, key := range keys {
			g.Go(func() error {
				switch l.sweepKey(gctx, key, threshold) {
				case sweepDeleted:
					deleted.Add(1)
				case sweepSkipped:
					skipped.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		if next == "" || next == cursor {
			break
		}
		cursor = next
	}

	stats.Scanned = int(scanned.Load())
	stats.Deleted = int(deleted.Load())
	stats.Skipped = int(skipped.Load())
	stats.Duration = time.Since(start)
	return stats
}

type sweepOutcome int

const (
	sweepKept sweepOutcome = iota
	sweepDeleted
	sweepSkipped
)

func (l *HybridLimiter) sweepKey(ctx context.Context, key string, threshold int64) sweepOutcome {
	rec := l.store.Get(ctx, key)
	if rec == nil {
		return sweepSkipped
	}
	if l.now().UnixMilli()-rec.LastAccess <= threshold {
		return sweepKept
	}

	unlock := l.locks.Lock(key)
	defer unlock()

	// L1 may hold a newer copy if a write-through failed
	if cached, ok := l.cache.Get(key); ok && l.now().UnixMilli()-cached.LastAccess <= threshold {
		return sweepKept
	}
	// a check may have written through since the first read
	rec = l.store.Get(ctx, key)
	if rec == nil {
		return sweepSkipped
	}
	if l.now().UnixMilli()-rec.LastAccess <= threshold {
		return sweepKept
	}

	l.store.Delete(ctx, key)
	l.cache.Delete(key)
	return sweepDeleted
}

// Start schedules Cleanup every CleanupInterval. It is a no-op when the
// interval is zero or the schedule is already running.
func (l *HybridLimiter) Start() error {
	l.schedMu.Lock()
	defer l.schedMu.Unlock()

	if l.scheduler != nil || l.cfg.CleanupInterval <= 0 {
		return nil
	}

	cl := cronLogger{l.logger}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	ctx, cancel := context.WithCancel(context.Background())

	schedule := fmt.Sprintf("@every %s", l.cfg.CleanupInterval)
	if _, err := c.AddFunc(schedule, func() { l.scheduledCleanup(ctx) }); err != nil {
		cancel()
		return errors.ConfigError(fmt.Sprintf("invalid cleanup interval %s: %v", l.cfg.CleanupInterval, err))
	}

	c.Start()
	l.scheduler = c
	l.sweepCancel = cancel

	l.logger.Info("Cleanup scheduled", logging.Duration("interval", l.cfg.CleanupInterval))
	return nil
}

// Stop cancels any running sweep and waits for it to return. Safe to call
// more than once.
func (l *HybridLimiter) Stop() {
	l.schedMu.Lock()
	defer l.schedMu.Unlock()

	if l.scheduler == nil {
		return
	}
	l.sweepCancel()
	<-l.scheduler.Stop().Done()
	l.scheduler = nil
	l.sweepCancel = nil
}

func (l *HybridLimiter) scheduledCleanup(ctx context.Context) {
	stats := l.Cleanup(ctx)
	l.logger.Info("Cleanup finished",
		logging.Int("scanned", stats.Scanned),
		logging.Int("deleted", stats.Deleted),
		logging.Int("skipped", stats.Skipped),
		logging.Int("l1_expired", stats.L1Expired),
		logging.Duration("duration", stats.Duration),
	)
}

// cronLogger adapts a Logger to cron.Logger.
type cronLogger struct {
	logger logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debug(msg, pairs(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Error(msg, err, pairs(keysAndValues)...)
}

func pairs(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logging.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
