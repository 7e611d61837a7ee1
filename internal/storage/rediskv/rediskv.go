// Package rediskv stores rate-limit records in Redis as JSON strings with a
// native TTL.
package rediskv

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/models"
	"webhook-ratelimiter/internal/redis"
	"webhook-ratelimiter/internal/storage"
)

// Store is a storage.Backend over a Redis client.
type Store struct {
	client *redis.Client
	owned  bool
}

var _ storage.Backend = (*Store)(nil)

// New wraps an existing client. Close does not close it.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	data, err := s.client.Get(ctx, key)
	if stderrors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return storage.DecodeRecord(key, data)
}

func (s *Store) Put(ctx context.Context, key string, rec *models.RateLimitRecord, ttl time.Duration) error {
	data, err := storage.EncodeRecord(rec)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, key, data, ttl)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Delete(ctx, key)
}

// List runs one SCAN step. The cursor is the decimal SCAN cursor; limit is
// passed as the COUNT hint, so a page may be larger or smaller than limit.
func (s *Store) List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string, error) {
	var pos uint64
	if cursor != "" {
		var err error
		pos, err = strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, "", errors.ValidationError("invalid scan cursor").WithContext("cursor", cursor)
		}
	}
	if limit <= 0 {
		return []string{}, "", nil
	}

	keys, next, err := s.client.ScanPrefix(ctx, prefix, pos, int64(limit))
	if err != nil {
		return nil, "", err
	}
	if next == 0 {
		return keys, "", nil
	}
	return keys, strconv.FormatUint(next, 10), nil
}

func (s *Store) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *Store) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}

// Factory creates Redis stores from a GenericConfig with the keys address,
// password, db, pool_size and dial_timeout.
type Factory struct{}

func (Factory) Create(config storage.BackendConfig) (storage.Backend, error) {
	gc, ok := config.(storage.GenericConfig)
	if !ok {
		return nil, errors.ConfigError("redis storage requires a GenericConfig")
	}

	client, err := redis.NewClient(&redis.Config{
		Address:     gc.String("address", "localhost:6379"),
		Password:    gc.String("password", ""),
		DB:          gc.Int("db", 0),
		PoolSize:    gc.Int("pool_size", 10),
		DialTimeout: gc.Duration("dial_timeout", 5*time.Second),
	})
	if err != nil {
		return nil, errors.ConnectionError("failed to connect to redis", err)
	}
	return &Store{client: client, owned: true}, nil
}

func (Factory) GetType() string {
	return "redis"
}
