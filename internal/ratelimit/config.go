package ratelimit

import (
	"time"

	"webhook-ratelimiter/internal/config"
)

// KeyPrefix namespaces rate-limit records in the durable store.
const KeyPrefix = "ratelimit:"

// Config controls the limiter's caches and background cleanup.
type Config struct {
	// L1MaxSize caps the in-memory cache; 0 disables it.
	L1MaxSize int
	L1TTL     time.Duration
	// KVTTLBuffer is added to the window to form the durable record TTL.
	KVTTLBuffer time.Duration
	// CleanupThreshold is how long a record may sit idle before cleanup deletes it.
	CleanupThreshold time.Duration
	// CleanupInterval schedules Cleanup after Start; 0 disables the schedule.
	CleanupInterval    time.Duration
	CleanupPageSize    int
	CleanupConcurrency int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		L1MaxSize:          10000,
		L1TTL:              5 * time.Minute,
		KVTTLBuffer:        5 * time.Minute,
		CleanupThreshold:   24 * time.Hour,
		CleanupInterval:    time.Hour,
		CleanupPageSize:    1000,
		CleanupConcurrency: 8,
	}
}

// ConfigFromSettings builds a Config from the application settings.
func ConfigFromSettings(s config.LimiterSettings) Config {
	cfg := DefaultConfig()
	cfg.L1MaxSize = s.L1MaxSize
	cfg.L1TTL = s.L1TTL
	cfg.KVTTLBuffer = s.KVTTLBuffer
	cfg.CleanupThreshold = s.CleanupThreshold
	cfg.CleanupInterval = s.CleanupInterval
	if s.CleanupPageSize > 0 {
		cfg.CleanupPageSize = s.CleanupPageSize
	}
	return cfg
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.L1MaxSize < 0 {
		c.L1MaxSize = 0
	}
	if c.L1TTL <= 0 {
		c.L1TTL = d.L1TTL
	}
	if c.KVTTLBuffer < 0 {
		c.KVTTLBuffer = 0
	}
	if c.CleanupThreshold <= 0 {
		c.CleanupThreshold = d.CleanupThreshold
	}
	if c.CleanupPageSize <= 0 {
		c.CleanupPageSize = d.CleanupPageSize
	}
	if c.CleanupConcurrency <= 0 {
		c.CleanupConcurrency = d.CleanupConcurrency
	}
	return c
}

// StoreKey returns the durable key for identity.
func StoreKey(identity string) string {
	return KeyPrefix + identity
}
