// Package cache provides the in-process L1 tier for the rate limiter: a
// bounded, least-recently-used cache whose entries also expire after a fixed
// TTL measured from insertion.
//
// Expiry is checked lazily on Get and Has, and eagerly by Cleanup, which the
// limiter's background sweep calls. A MemoryCache with a max size of zero is
// valid and never retains anything.
//
//	c := cache.NewMemoryCache[*models.RateLimitRecord](10000, 5*time.Minute)
//	c.Set("ratelimit:user-1", rec)
//	if rec, ok := c.Get("ratelimit:user-1"); ok {
//		// ...
//	}
package cache
