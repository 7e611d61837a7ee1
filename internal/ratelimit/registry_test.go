package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/common/logging"
)

func TestRegistry_CheckBeforeInitialize(t *testing.T) {
	r := NewRegistry()

	_, err := r.CheckRequest(context.Background(), "k", time.Second, 1, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotInitialized))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	assert.Nil(t, r.Limiter())
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	first, err := r.Initialize(nil, testConfig(), WithLogger(logging.NopLogger{}))
	require.NoError(t, err)
	assert.Same(t, first, r.Limiter())

	res, err := r.CheckRequest(ctx, "k", time.Minute, 1, nil)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = r.CheckRequest(ctx, "k", time.Minute, 1, nil)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// re-initializing replaces the limiter and its memory
	second, err := r.Initialize(nil, testConfig(), WithLogger(logging.NopLogger{}))
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 0, first.Stats().Cache.Size)

	res, err = r.CheckRequest(ctx, "k", time.Minute, 1, nil)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	r.Dispose()
	r.Dispose()

	_, err = r.CheckRequest(ctx, "k", time.Minute, 1, nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestRegistry_InitializeStartsCleanup(t *testing.T) {
	r := NewRegistry()
	cfg := testConfig()
	cfg.CleanupInterval = time.Hour

	l, err := r.Initialize(nil, cfg, WithLogger(logging.NopLogger{}))
	require.NoError(t, err)
	assert.NotNil(t, l.scheduler)

	r.Dispose()
	assert.Nil(t, l.scheduler)
}

func TestRegistry_ConcurrentChecksAndDispose(t *testing.T) {
	r := NewRegistry()
	_, err := r.Initialize(nil, testConfig(), WithLogger(logging.NopLogger{}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.CheckRequest(context.Background(), "k", time.Minute, 5, nil)
			if err != nil {
				assert.ErrorIs(t, err, ErrNotInitialized)
			}
		}()
	}
	r.Dispose()
	wg.Wait()
}
