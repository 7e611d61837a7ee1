// Package config provides configuration management for the webhook rate limiter.
// It loads configuration from environment variables with sensible defaults and
// validates it so the service never starts with an unusable limiter.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//
// Durable Store:
//   - KV_BACKEND: memory, redis, sqlite, postgres or none (default: memory)
//   - KV_OP_TIMEOUT: Per-operation timeout for durable store calls (default: 250ms)
//   - KV_TTL_BUFFER: Extra lifetime added to each persisted record (default: 5m)
//   - DATABASE_PATH: SQLite database file path (default: ./ratelimit.db)
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER,
//     POSTGRES_PASSWORD, POSTGRES_SSL_MODE: PostgreSQL connection settings
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Memory Cache:
//   - L1_MAX_SIZE: Maximum number of cached identities (default: 10000)
//   - L1_TTL: Lifetime of a cached record (default: 5m)
//
// Cleanup:
//   - CLEANUP_THRESHOLD: Idle time after which a record is swept, accepts "7d" (default: 24h)
//   - CLEANUP_INTERVAL: How often the background sweep runs, 0 disables it (default: 1h)
//   - CLEANUP_PAGE_SIZE: Keys listed per page during a sweep (default: 1000)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Enable the webhook rate-limit middleware (default: true)
//   - RATE_LIMIT_DEFAULT: Requests allowed per window (default: 100)
//   - RATE_LIMIT_WINDOW: Rate limiting time window (default: 60s)
//
// Security:
//   - JWT_SECRET: HS256 secret for admin routes; admin routes are open when unset
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
//	limiterCfg := cfg.Limiter()
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"webhook-ratelimiter/internal/common/utils"
)

// Backend names accepted by KV_BACKEND
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// Config holds all configuration values for the service. Durations and
// numbers are kept in their environment form and parsed by Validate.
type Config struct {
	// Application settings
	Port     string // Server port number
	LogLevel string // Logging level (debug, info, warn, error)

	// Durable store selection
	KVBackend    string // memory, redis, sqlite, postgres or none
	KVOpTimeout  string // Per-call timeout for durable operations
	KVTTLBuffer  string // Extra TTL on top of the window for persisted records
	DatabasePath string // Path to SQLite database file

	// Redis configuration
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size

	// PostgreSQL configuration
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	// Memory cache
	L1MaxSize string
	L1TTL     string

	// Cleanup sweep
	CleanupThreshold string
	CleanupInterval  string
	CleanupPageSize  string

	// Rate limiting for inbound webhooks
	RateLimitEnabled bool   // Whether the webhook middleware is enabled
	RateLimitDefault string // Default requests per window
	RateLimitWindow  string // Rate limiting time window (e.g., "60s", "1m")

	// JWT authentication for admin routes
	JWTSecret string
}

// LimiterSettings are the parsed values the limiter and its store need.
type LimiterSettings struct {
	L1MaxSize        int
	L1TTL            time.Duration
	KVTTLBuffer      time.Duration
	KVOpTimeout      time.Duration
	CleanupThreshold time.Duration
	CleanupInterval  time.Duration
	CleanupPageSize  int
	DefaultLimit     int
	DefaultWindow    time.Duration
}

// Load creates a new Config instance with values loaded from environment variables.
// It does not validate; call Validate before use.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		KVBackend:    strings.ToLower(getEnv("KV_BACKEND", BackendMemory)),
		KVOpTimeout:  getEnv("KV_OP_TIMEOUT", "250ms"),
		KVTTLBuffer:  getEnv("KV_TTL_BUFFER", "5m"),
		DatabasePath: getEnv("DATABASE_PATH", "./ratelimit.db"),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "ratelimit"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		L1MaxSize: getEnv("L1_MAX_SIZE", "10000"),
		L1TTL:     getEnv("L1_TTL", "5m"),

		CleanupThreshold: getEnv("CLEANUP_THRESHOLD", "24h"),
		CleanupInterval:  getEnv("CLEANUP_INTERVAL", "1h"),
		CleanupPageSize:  getEnv("CLEANUP_PAGE_SIZE", "1000"),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitDefault: getEnv("RATE_LIMIT_DEFAULT", "100"),
		RateLimitWindow:  getEnv("RATE_LIMIT_WINDOW", "60s"),

		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
// Unparseable values fall back to the default.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// PostgresDSN builds a libpq-style connection string for pgx.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresUser, c.PostgresPassword, c.PostgresSSLMode)
}

// RedisDBNumber returns the parsed REDIS_DB value.
func (c *Config) RedisDBNumber() int {
	db, _ := strconv.Atoi(c.RedisDB)
	return db
}

// RedisPoolSizeNumber returns the parsed REDIS_POOL_SIZE value.
func (c *Config) RedisPoolSizeNumber() int {
	size, _ := strconv.Atoi(c.RedisPoolSize)
	return size
}

// Limiter returns the parsed limiter settings. Values that fail to parse
// come back as zero, so call Validate first.
func (c *Config) Limiter() LimiterSettings {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	dur := func(s string) time.Duration {
		d, _ := utils.ParseDuration(s)
		return d
	}

	return LimiterSettings{
		L1MaxSize:        atoi(c.L1MaxSize),
		L1TTL:            dur(c.L1TTL),
		KVTTLBuffer:      dur(c.KVTTLBuffer),
		KVOpTimeout:      dur(c.KVOpTimeout),
		CleanupThreshold: dur(c.CleanupThreshold),
		CleanupInterval:  dur(c.CleanupInterval),
		CleanupPageSize:  atoi(c.CleanupPageSize),
		DefaultLimit:     atoi(c.RateLimitDefault),
		DefaultWindow:    dur(c.RateLimitWindow),
	}
}

// Validate checks that every value parses and that backend-specific
// settings are present for the selected KV_BACKEND.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.KVBackend {
	case BackendMemory, BackendNone:
	case BackendRedis:
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when KV_BACKEND is redis")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	case BackendSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when KV_BACKEND is sqlite")
		}
	case BackendPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when KV_BACKEND is postgres")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when KV_BACKEND is postgres")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when KV_BACKEND is postgres")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	default:
		return fmt.Errorf("KV_BACKEND must be one of memory, redis, sqlite, postgres or none")
	}

	if size, err := strconv.Atoi(c.L1MaxSize); err != nil || size < 0 {
		return fmt.Errorf("L1_MAX_SIZE must be a non-negative number")
	}
	if size, err := strconv.Atoi(c.CleanupPageSize); err != nil || size < 1 {
		return fmt.Errorf("CLEANUP_PAGE_SIZE must be a positive number")
	}

	for _, v := range []struct{ name, value string }{
		{"L1_TTL", c.L1TTL},
		{"KV_OP_TIMEOUT", c.KVOpTimeout},
		{"CLEANUP_THRESHOLD", c.CleanupThreshold},
	} {
		if d, err := utils.ParseDuration(v.value); err != nil || d <= 0 {
			return fmt.Errorf("%s must be a positive duration (e.g., '5m', '250ms')", v.name)
		}
	}
	if d, err := utils.ParseDuration(c.KVTTLBuffer); err != nil || d < 0 {
		return fmt.Errorf("KV_TTL_BUFFER must be a non-negative duration")
	}
	if d, err := utils.ParseDuration(c.CleanupInterval); err != nil || d < 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must be a non-negative duration")
	}

	if c.RateLimitEnabled {
		if limit, err := strconv.Atoi(c.RateLimitDefault); err != nil || limit < 1 {
			return fmt.Errorf("RATE_LIMIT_DEFAULT must be a positive number")
		}
		if d, err := utils.ParseDuration(c.RateLimitWindow); err != nil || d <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be a valid duration (e.g., '60s', '1m')")
		}
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long for security")
	}

	return nil
}
