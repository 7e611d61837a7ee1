package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(maxSize int, ttl time.Duration) (*MemoryCache[int], *fakeClock) {
	clock := newFakeClock()
	return NewMemoryCache(maxSize, ttl, WithClock[int](clock.Now)), clock
}

func TestMemoryCache_GetSet(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set("a", 2)
	v, _ = c.Get("a")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Size())
}

func TestMemoryCache_TTL(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", 1)

	t.Run("exactly ttl old is still valid", func(t *testing.T) {
		clock.Advance(time.Minute)
		assert.True(t, c.Has("a"))
	})

	t.Run("older than ttl is evicted on read", func(t *testing.T) {
		clock.Advance(time.Millisecond)
		_, ok := c.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Size())
	})

	t.Run("set refreshes insertion time", func(t *testing.T) {
		c.Set("b", 1)
		clock.Advance(50 * time.Second)
		c.Set("b", 2)
		clock.Advance(50 * time.Second)
		v, ok := c.Get("b")
		require.True(t, ok)
		assert.Equal(t, 2, v)
	})

	t.Run("get does not refresh insertion time", func(t *testing.T) {
		c.Set("c", 1)
		clock.Advance(40 * time.Second)
		_, ok := c.Get("c")
		require.True(t, ok)
		clock.Advance(40 * time.Second)
		_, ok = c.Get("c")
		assert.False(t, ok)
	})
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	c, _ := newTestCache(3, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes least recently used.
	_, _ = c.Get("a")
	c.Set("d", 4)

	assert.Equal(t, 3, c.Size())
	assert.False(t, c.Has("b"))
	assert.True(t, c.Has("a"))
	assert.True(t, c.Has("c"))
	assert.True(t, c.Has("d"))

	// Re-setting an existing key at capacity must not evict anything else.
	c.Set("c", 30)
	assert.Equal(t, 3, c.Size())
	assert.True(t, c.Has("a"))
	assert.True(t, c.Has("d"))

	// "a" is now the oldest.
	c.Set("e", 5)
	assert.False(t, c.Has("a"))
}

func TestMemoryCache_HasDoesNotChangeRecency(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)
	assert.True(t, c.Has("a"))
	c.Set("c", 3)

	assert.False(t, c.Has("a"))
	assert.True(t, c.Has("b"))
}

func TestMemoryCache_ZeroCapacity(t *testing.T) {
	c, _ := newTestCache(0, time.Hour)

	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, 0.0, c.Stats().Utilization)

	neg := NewMemoryCache[int](-5, time.Hour)
	neg.Set("a", 1)
	assert.Equal(t, 0, neg.Size())
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	c, _ := newTestCache(10, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("b")
	assert.False(t, ok)

	c.Set("c", 3)
	assert.True(t, c.Has("c"))
}

func TestMemoryCache_Cleanup(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Set("old-1", 1)
	c.Set("old-2", 2)
	clock.Advance(45 * time.Second)
	c.Set("fresh", 3)
	clock.Advance(30 * time.Second)

	assert.Equal(t, 3, c.Size())
	assert.Equal(t, 2, c.Cleanup())
	assert.Equal(t, 1, c.Size())
	assert.True(t, c.Has("fresh"))
	assert.Equal(t, 0, c.Cleanup())
}

func TestMemoryCache_Stats(t *testing.T) {
	c, _ := newTestCache(4, 5*time.Minute)
	c.Set("a", 1)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 4, stats.MaxSize)
	assert.Equal(t, 0.25, stats.Utilization)
	assert.Equal(t, 5*time.Minute, stats.TTL)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache[int](100, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k-%d", (g*500+i)%150)
				c.Set(key, i)
				_, _ = c.Get(key)
				_ = c.Has(key)
				if i%50 == 0 {
					c.Cleanup()
					_ = c.Stats()
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), 100)
}
