// Package storage defines the durable (L2) tier of the rate limiter.
//
// Concrete backends implement Backend and report every failure as an error.
// The limiter never sees those errors: it consumes a DurableStore, which Guard
// builds from a Backend by logging each failure, counting it, and returning a
// neutral value instead.
//
//	backend, err := storage.Create("redis", storage.GenericConfig{"address": "localhost:6379"})
//	if err != nil {
//		return err
//	}
//	store := storage.Guard(backend, storage.GuardOptions{Timeout: 250 * time.Millisecond})
package storage

import (
	"context"
	"time"

	"webhook-ratelimiter/internal/models"
)

// Backend is a TTL-capable key-value store for rate-limit records.
type Backend interface {
	// Get returns the record for key, or nil and no error when it does not exist.
	Get(ctx context.Context, key string) (*models.RateLimitRecord, error)
	// Put stores rec under key for ttl. A non-positive ttl means no expiry.
	Put(ctx context.Context, key string, rec *models.RateLimitRecord, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns up to about limit keys starting with prefix, resuming after
	// cursor. The returned cursor is empty once every key has been listed.
	List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string, error)
	// Health reports whether the backend is reachable.
	Health(ctx context.Context) error
	Close() error
}

// DurableStore is the never-failing view of a Backend the limiter uses.
// Failures surface only as nil, no-op or empty results.
type DurableStore interface {
	Get(ctx context.Context, key string) *models.RateLimitRecord
	Put(ctx context.Context, key string, rec *models.RateLimitRecord, ttl time.Duration)
	Delete(ctx context.Context, key string)
	List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string)
}

// BackendConfig configures a backend created through a Registry.
type BackendConfig interface {
	Validate() error
	GetType() string
}

// BackendFactory creates backends of one type.
type BackendFactory interface {
	Create(config BackendConfig) (Backend, error)
	GetType() string
}

// GenericConfig is a simple map-based implementation of BackendConfig
type GenericConfig map[string]interface{}

func (gc GenericConfig) Validate() error {
	return nil
}

func (gc GenericConfig) GetType() string {
	if t, ok := gc["type"].(string); ok {
		return t
	}
	return "unknown"
}

// String returns the string value for key, or def.
func (gc GenericConfig) String(key, def string) string {
	if v, ok := gc[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Int returns the int value for key, or def.
func (gc GenericConfig) Int(key string, def int) int {
	switch v := gc[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Duration returns the duration value for key, or def.
func (gc GenericConfig) Duration(key string, def time.Duration) time.Duration {
	if v, ok := gc[key].(time.Duration); ok {
		return v
	}
	return def
}
