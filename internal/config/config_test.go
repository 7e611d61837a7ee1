package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "LOG_LEVEL", "KV_BACKEND", "KV_OP_TIMEOUT", "KV_TTL_BUFFER", "DATABASE_PATH",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB", "POSTGRES_USER",
	"POSTGRES_PASSWORD", "POSTGRES_SSL_MODE",
	"L1_MAX_SIZE", "L1_TTL", "CLEANUP_THRESHOLD", "CLEANUP_INTERVAL", "CLEANUP_PAGE_SIZE",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_DEFAULT", "RATE_LIMIT_WINDOW", "JWT_SECRET",
}

// clearEnv blanks every key Load reads; t.Setenv restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendMemory, cfg.KVBackend)
	assert.Equal(t, "./ratelimit.db", cfg.DatabasePath)
	assert.Equal(t, "localhost:6379", cfg.RedisAddress)
	assert.True(t, cfg.RateLimitEnabled)
	assert.Empty(t, cfg.JWTSecret)

	require.NoError(t, cfg.Validate())

	settings := cfg.Limiter()
	assert.Equal(t, 10000, settings.L1MaxSize)
	assert.Equal(t, 5*time.Minute, settings.L1TTL)
	assert.Equal(t, 5*time.Minute, settings.KVTTLBuffer)
	assert.Equal(t, 250*time.Millisecond, settings.KVOpTimeout)
	assert.Equal(t, 24*time.Hour, settings.CleanupThreshold)
	assert.Equal(t, time.Hour, settings.CleanupInterval)
	assert.Equal(t, 1000, settings.CleanupPageSize)
	assert.Equal(t, 100, settings.DefaultLimit)
	assert.Equal(t, 60*time.Second, settings.DefaultWindow)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("KV_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_POOL_SIZE", "25")
	t.Setenv("L1_MAX_SIZE", "0")
	t.Setenv("CLEANUP_INTERVAL", "0s")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendRedis, cfg.KVBackend)
	assert.Equal(t, 3, cfg.RedisDBNumber())
	assert.Equal(t, 25, cfg.RedisPoolSizeNumber())
	assert.False(t, cfg.RateLimitEnabled)
	assert.Equal(t, 0, cfg.Limiter().L1MaxSize)
	assert.Equal(t, time.Duration(0), cfg.Limiter().CleanupInterval)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_KEY_EXISTS", "value")
	t.Setenv("TEST_KEY_EMPTY", "")

	assert.Equal(t, "value", getEnv("TEST_KEY_EXISTS", "default"))
	assert.Equal(t, "default", getEnv("TEST_KEY_EMPTY", "default"))
	os.Unsetenv("TEST_KEY_MISSING")
	assert.Equal(t, "default", getEnv("TEST_KEY_MISSING", "default"))
}

func TestGetBoolEnv(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, getBoolEnv("TEST_BOOL", tt.defaultValue))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantErr: "PORT",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.KVBackend = "etcd" },
			wantErr: "KV_BACKEND",
		},
		{
			name: "redis db out of range",
			mutate: func(c *Config) {
				c.KVBackend = BackendRedis
				c.RedisDB = "16"
			},
			wantErr: "REDIS_DB",
		},
		{
			name: "redis without address",
			mutate: func(c *Config) {
				c.KVBackend = BackendRedis
				c.RedisAddress = ""
			},
			wantErr: "REDIS_ADDRESS",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.KVBackend = BackendSQLite
				c.DatabasePath = ""
			},
			wantErr: "DATABASE_PATH",
		},
		{
			name: "postgres without user",
			mutate: func(c *Config) {
				c.KVBackend = BackendPostgres
				c.PostgresUser = ""
			},
			wantErr: "POSTGRES_USER",
		},
		{
			name:    "negative cache size",
			mutate:  func(c *Config) { c.L1MaxSize = "-1" },
			wantErr: "L1_MAX_SIZE",
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.CleanupPageSize = "0" },
			wantErr: "CLEANUP_PAGE_SIZE",
		},
		{
			name:    "zero cache ttl",
			mutate:  func(c *Config) { c.L1TTL = "0s" },
			wantErr: "L1_TTL",
		},
		{
			name:    "bad op timeout",
			mutate:  func(c *Config) { c.KVOpTimeout = "soon" },
			wantErr: "KV_OP_TIMEOUT",
		},
		{
			name:    "negative ttl buffer",
			mutate:  func(c *Config) { c.KVTTLBuffer = "-1m" },
			wantErr: "KV_TTL_BUFFER",
		},
		{
			name:    "bad rate limit window",
			mutate:  func(c *Config) { c.RateLimitWindow = "invalid" },
			wantErr: "RATE_LIMIT_WINDOW",
		},
		{
			name: "rate limit values ignored when disabled",
			mutate: func(c *Config) {
				c.RateLimitEnabled = false
				c.RateLimitDefault = "0"
			},
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "short" },
			wantErr: "JWT_SECRET",
		},
		{
			name:   "long jwt secret",
			mutate: func(c *Config) { c.JWTSecret = "this-is-a-very-long-secret-key-for-jwt-signing" },
		},
		{
			name:   "postgres defaults",
			mutate: func(c *Config) { c.KVBackend = BackendPostgres },
		},
		{
			name:   "no durable store",
			mutate: func(c *Config) { c.KVBackend = BackendNone },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := Load()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_PostgresDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_PASSWORD", "secret")

	dsn := Load().PostgresDSN()

	assert.Equal(t, "host=localhost port=5432 dbname=ratelimit user=postgres password=secret sslmode=disable", dsn)
}

func TestConfig_DayDurations(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLEANUP_THRESHOLD", "7d")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 7*24*time.Hour, cfg.Limiter().CleanupThreshold)
}
