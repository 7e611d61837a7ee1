// Package metrics defines the counters the rate limiter reports into and
// the sinks that collect them.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Sink receives increment-only limiter events.
type Sink interface {
	Allow()
	Deny()
	L1Hit()
	KVError(op string)
}

// CheckObserver is implemented by sinks that also record check latency.
type CheckObserver interface {
	ObserveCheck(d time.Duration)
}

// Snapshot is a point-in-time copy of a Counters sink.
type Snapshot struct {
	Allowed  uint64            `json:"allowed"`
	Denied   uint64            `json:"denied"`
	L1Hits   uint64            `json:"l1Hits"`
	KVErrors map[string]uint64 `json:"kvErrors"`
}

// Total returns the number of checks recorded.
func (s Snapshot) Total() uint64 {
	return s.Allowed + s.Denied
}

// KVErrorTotal sums errors across operations.
func (s Snapshot) KVErrorTotal() uint64 {
	var total uint64
	for _, n := range s.KVErrors {
		total += n
	}
	return total
}

// Counters is an in-memory Sink backing the stats and health endpoints.
type Counters struct {
	allowed atomic.Uint64
	denied  atomic.Uint64
	l1Hits  atomic.Uint64

	mu       sync.RWMutex
	kvErrors map[string]*atomic.Uint64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{kvErrors: make(map[string]*atomic.Uint64)}
}

func (c *Counters) Allow() { c.allowed.Add(1) }
func (c *Counters) Deny() { c.denied.Add(1) }
func (c *Counters) L1Hit() { c.l1Hits.Add(1) }

func (c *Counters) KVError(op string) {
	c.mu.RLock()
	n, ok := c.kvErrors[op]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		if n, ok = c.kvErrors[op]; !ok {
			n = new(atomic.Uint64)
			c.kvErrors[op] = n
		}
		c.mu.Unlock()
	}
	n.Add(1)
}

// Snapshot copies the current values.
func (c *Counters) Snapshot() Snapshot {
	c.mu.RLock()
	ops := make([]string, 0, len(c.kvErrors))
	for op := range c.kvErrors {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	kv := make(map[string]uint64, len(ops))
	for _, op := range ops {
		kv[op] = c.kvErrors[op].Load()
	}
	c.mu.RUnlock()

	return Snapshot{
		Allowed:  c.allowed.Load(),
		Denied:   c.denied.Load(),
		L1Hits:   c.l1Hits.Load(),
		KVErrors: kv,
	}
}

// Multi fans every event out to each sink.
type Multi []Sink

func (m Multi) Allow() {
	for _, s := range m {
		s.Allow()
	}
}

func (m Multi) Deny() {
	for _, s := range m {
		s.Deny()
	}
}

func (m Multi) L1Hit() {
	for _, s := range m {
		s.L1Hit()
	}
}

func (m Multi) KVError(op string) {
	for _, s := range m {
		s.KVError(op)
	}
}

// ObserveCheck forwards to the sinks that record latency.
func (m Multi) ObserveCheck(d time.Duration) {
	for _, s := range m {
		if o, ok := s.(CheckObserver); ok {
			o.ObserveCheck(d)
		}
	}
}

// Noop discards everything.
type Noop struct{}

func (Noop) Allow() {}
func (Noop) Deny() {}
func (Noop) L1Hit() {}
func (Noop) KVError(string) {}
