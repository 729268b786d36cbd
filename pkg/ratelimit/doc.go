// Package ratelimit spaces outgoing Discogs API requests.
//
// The default Interval limiter guarantees that no two request starts are
// closer than the configured minimum interval and releases waiters in the
// order they called Wait. TokenBucket and SlidingWindow are available for
// budgets expressed as requests per minute.
//
// All limiters implement Limiter:
//   - Allow() bool takes a slot only if one is free now
//   - Wait(ctx) error blocks until a slot opens or ctx is done
//   - Reset() forgets past requests
//
// Usage:
//
//	limiter, err := ratelimit.New(cfg.RateLimit)
//	if err != nil {
//	    return err
//	}
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	// issue the request
package ratelimit
