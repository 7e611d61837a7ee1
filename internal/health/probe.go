// Package health checks that the durable tier can round-trip a record.
package health

import (
	"context"
	"time"

	"github.com/lucsky/cuid"
	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/models"
	"webhook-ratelimiter/internal/storage"
)

// ProbePrefix namespaces probe keys away from limiter records.
const ProbePrefix = "health:probe:"

const probeTTL = time.Minute

// Report is the outcome of one probe.
type Report struct {
	Available bool   `json:"available"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// Probe writes a throwaway record, reads it back and deletes it. The
// backend is called directly so that failures are reported rather than
// swallowed.
func Probe(ctx context.Context, backend storage.Backend) Report {
	start := time.Now()
	err := roundTrip(ctx, backend)

	report := Report{
		Available: err == nil,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		report.Error = err.Error()
	}
	return report
}

func roundTrip(ctx context.Context, backend storage.Backend) error {
	key := ProbePrefix + cuid.New()
	now := time.Now().UnixMilli()
	rec := models.NewRecord(probeTTL.Milliseconds(), 1, now)
	rec.Timestamps = []int64{now}

	if err := backend.Put(ctx, key, rec, probeTTL); err != nil {
		return errors.StoreError("put", err)
	}
	defer backend.Delete(context.WithoutCancel(ctx), key)

	got, err := backend.Get(ctx, key)
	if err != nil {
		return errors.StoreError("get", err)
	}
	if got == nil || len(got.Timestamps) != 1 || got.Timestamps[0] != now {
		return errors.StoreError("get", errors.InternalError("probe record did not round-trip", nil))
	}
	return nil
}
