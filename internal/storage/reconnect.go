package storage

import (
	"context"
	"math"
	"sync"
	"time"

	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/common/logging"
	"webhook-ratelimiter/internal/common/utils"
	"webhook-ratelimiter/internal/models"
)

// ConnectFunc opens a backend.
type ConnectFunc func() (Backend, error)

// Reconnecting is a Backend that keeps trying to open its real backend in
// the background. Until it succeeds every call fails with a connection
// error, which Guard absorbs and the health check reports.
type Reconnecting struct {
	connect ConnectFunc
	logger  logging.Logger

	mu      sync.RWMutex
	backend Backend
	lastErr error

	cancel context.CancelFunc
	done   chan struct{}
}

var _ Backend = (*Reconnecting)(nil)

// Connect opens a backend with one attempt. When that attempt fails with an
// error retry accepts, Connect returns a Reconnecting backend that keeps
// retrying with retry's backoff until it connects or is closed. Other errors,
// such as bad configuration, are returned.
func Connect(connect ConnectFunc, retry utils.RetryConfig, logger logging.Logger) (Backend, error) {
	backend, err := connect()
	if err == nil {
		return backend, nil
	}
	if retry.RetryableErrors != nil && !retry.RetryableErrors(err) {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Reconnecting{
		connect: connect,
		logger:  logger,
		lastErr: err,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	logger.Warn("Durable store unreachable, serving from memory until it connects", logging.Err(err))

	go r.loop(ctx, retry)
	return r, nil
}

func (r *Reconnecting) loop(ctx context.Context, retry utils.RetryConfig) {
	defer close(r.done)

	retry.MaxAttempts = math.MaxInt
	// the first attempt already failed in Connect
	first := true
	err := utils.RetryWithBackoff(ctx, retry, func() error {
		if first {
			first = false
			_, err := r.open()
			return err
		}
		backend, err := r.connect()
		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			r.lastErr = err
			return err
		}
		r.backend = backend
		r.lastErr = nil
		return nil
	})

	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("Giving up on durable store connection", err)
		}
		return
	}
	r.logger.Info("Durable store connected")
}

// Connected reports whether the real backend is open.
func (r *Reconnecting) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backend != nil
}

func (r *Reconnecting) open() (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.backend == nil {
		return nil, errors.ConnectionError("durable store is not connected", r.lastErr)
	}
	return r.backend, nil
}

func (r *Reconnecting) Get(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	b, err := r.open()
	if err != nil {
		return nil, err
	}
	return b.Get(ctx, key)
}

func (r *Reconnecting) Put(ctx context.Context, key string, rec *models.RateLimitRecord, ttl time.Duration) error {
	b, err := r.open()
	if err != nil {
		return err
	}
	return b.Put(ctx, key, rec, ttl)
}

func (r *Reconnecting) Delete(ctx context.Context, key string) error {
	b, err := r.open()
	if err != nil {
		return err
	}
	return b.Delete(ctx, key)
}

func (r *Reconnecting) List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string, error) {
	b, err := r.open()
	if err != nil {
		return nil, "", err
	}
	return b.List(ctx, prefix, limit, cursor)
}

func (r *Reconnecting) Health(ctx context.Context) error {
	b, err := r.open()
	if err != nil {
		return err
	}
	return b.Health(ctx)
}

// Close stops reconnecting and closes the backend if it was opened.
func (r *Reconnecting) Close() error {
	r.cancel()
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend == nil {
		return nil
	}
	err := r.backend.Close()
	r.backend = nil
	return err
}
