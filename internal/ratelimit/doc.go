// Package ratelimit implements a two-tier sliding-window rate limiter.
//
// A HybridLimiter keeps the request timestamps of each identity in an
// in-process LRU cache (L1) and writes every change through to a durable
// key-value store (L2), so limits survive restarts and are shared, eventually,
// between instances. The durable tier is optional and may fail at any time;
// the limiter then keeps deciding from memory alone.
//
// Calls for the same identity are serialized by a per-key mutex. Calls for
// different identities never contend. The lock is local to the process:
// instances sharing a durable store coordinate only through it, and may
// briefly over-admit when they race on the same identity.
//
//	registry := ratelimit.NewRegistry()
//	registry.Initialize(store, ratelimit.DefaultConfig())
//	defer registry.Dispose()
//
//	res, err := registry.CheckRequest(ctx, "user-42", 5*time.Second, 3, nil)
package ratelimit
