package ratelimit

import (
	"context"
	"sync"
	"time"

	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/models"
	"webhook-ratelimiter/internal/storage"
)

// ErrNotInitialized is returned by Registry.CheckRequest when no limiter is
// active. It means the application was wired incorrectly.
var ErrNotInitialized = errors.ConfigError("rate limiter is not initialized").WithCode("RATE_LIMITER_NOT_INITIALIZED")

// Registry owns the active HybridLimiter and its lifecycle. Handlers hold a
// *Registry rather than a limiter so the limiter can be replaced at runtime.
type Registry struct {
	mu      sync.RWMutex
	limiter *HybridLimiter
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Initialize disposes the active limiter, if any, then creates and starts a
// new one.
func (r *Registry) Initialize(store storage.DurableStore, cfg Config, opts ...Option) (*HybridLimiter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.limiter != nil {
		r.limiter.Close()
		r.limiter = nil
	}

	l := NewHybridLimiter(store, cfg, opts...)
	if err := l.Start(); err != nil {
		return nil, err
	}
	r.limiter = l
	return l, nil
}

// CheckRequest delegates to the active limiter. The only error it returns
// is ErrNotInitialized.
func (r *Registry) CheckRequest(ctx context.Context, identity string, window time.Duration, maxRequests int, meta *models.Metadata) (models.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.limiter == nil {
		return models.Result{}, ErrNotInitialized
	}
	return r.limiter.CheckRequest(ctx, identity, window, maxRequests, meta), nil
}

// Limiter returns the active limiter, or nil.
func (r *Registry) Limiter() *HybridLimiter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limiter
}

// Dispose stops and forgets the active limiter. Safe to call repeatedly.
func (r *Registry) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.limiter != nil {
		r.limiter.Close()
		r.limiter = nil
	}
}
