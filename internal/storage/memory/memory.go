// Package memory is an in-process storage.Backend built on go-cache. It backs
// the memory-only deployment mode and the limiter's tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/models"
	"webhook-ratelimiter/internal/storage"
)

// DefaultJanitorInterval is how often expired entries are purged.
const DefaultJanitorInterval = time.Minute

// Store keeps encoded records in memory with per-key expiry.
type Store struct {
	items  *gocache.Cache
	mu     sync.RWMutex
	closed bool
}

var _ storage.Backend = (*Store)(nil)

// New creates a Store whose janitor runs every janitorInterval.
func New(janitorInterval time.Duration) *Store {
	if janitorInterval <= 0 {
		janitorInterval = DefaultJanitorInterval
	}
	return &Store{
		items: gocache.New(gocache.NoExpiration, janitorInterval),
	}
}

func (s *Store) Get(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	v, found := s.items.Get(key)
	if !found {
		return nil, nil
	}
	return storage.DecodeRecord(key, v.([]byte))
}

func (s *Store) Put(ctx context.Context, key string, rec *models.RateLimitRecord, ttl time.Duration) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	data, err := storage.EncodeRecord(rec)
	if err != nil {
		return err
	}
	s.items.Set(key, data, expiration(ttl))
	return nil
}

// PutRaw stores data under key without encoding it.
func (s *Store) PutRaw(key string, data []byte, ttl time.Duration) {
	s.items.Set(key, data, expiration(ttl))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.items.Delete(key)
	return nil
}

// List pages through live keys in lexical order. The cursor is the last key
// of the previous page.
func (s *Store) List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string, error) {
	if err := s.check(ctx); err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		return []string{}, "", nil
	}

	keys := make([]string, 0)
	for k := range s.items.Items() {
		if strings.HasPrefix(k, prefix) && k > cursor {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) <= limit {
		return keys, "", nil
	}
	page := keys[:limit]
	return page, page[len(page)-1], nil
}

// Len returns the number of stored entries, including expired ones the
// janitor has not purged yet.
func (s *Store) Len() int {
	return s.items.ItemCount()
}

func (s *Store) Health(ctx context.Context) error {
	return s.check(ctx)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.items.Flush()
	}
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ConnectionError("memory store is closed", nil)
	}
	return nil
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}

// Factory creates memory stores.
type Factory struct{}

// Create builds a Store. The "janitor_interval" key sets the purge interval.
func (Factory) Create(config storage.BackendConfig) (storage.Backend, error) {
	interval := DefaultJanitorInterval
	if gc, ok := config.(storage.GenericConfig); ok {
		interval = gc.Duration("janitor_interval", interval)
	}
	return New(interval), nil
}

func (Factory) GetType() string {
	return "memory"
}
