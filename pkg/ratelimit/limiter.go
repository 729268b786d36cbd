package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"discogscatalog/pkg/config"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow takes a slot only if one is free right now
	Allow() bool
	// Wait blocks until the caller may start a request or ctx is done
	Wait(ctx context.Context) error
	// Reset resets the rate limiter state
	Reset()
}

// Strategy names accepted by New
const (
	StrategyInterval      = "interval"
	StrategyTokenBucket   = "token_bucket"
	StrategySlidingWindow = "sliding_window"
)

// New builds the limiter selected by cfg.Strategy. An empty strategy means interval.
func New(cfg config.RateLimitConfig) (Limiter, error) {
	switch cfg.Strategy {
	case "", StrategyInterval:
		return NewInterval(time.Duration(cfg.MinIntervalMs) * time.Millisecond), nil
	case StrategyTokenBucket:
		if cfg.RequestsPerMinute <= 0 {
			return nil, fmt.Errorf("token_bucket needs requests_per_minute > 0")
		}
		return NewTokenBucket(cfg.RequestsPerMinute, time.Minute), nil
	case StrategySlidingWindow:
		if cfg.RequestsPerMinute <= 0 {
			return nil, fmt.Errorf("sliding_window needs requests_per_minute > 0")
		}
		return NewSlidingWindow(cfg.RequestsPerMinute, time.Minute), nil
	default:
		return nil, fmt.Errorf("unknown rate limit strategy %q", cfg.Strategy)
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Interval spaces request starts at least interval apart using a
// rate.Limiter with a burst of one. Reservations are taken under the
// limiter's lock, so callers are released in the order they arrived. It
// does not bound in-flight requests.
type Interval struct {
	limit rate.Limit
	lim   atomic.Pointer[rate.Limiter]
}

// NewInterval creates an interval limiter. A zero interval never blocks.
func NewInterval(interval time.Duration) *Interval {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	il := &Interval{limit: limit}
	il.lim.Store(rate.NewLimiter(limit, 1))
	return il
}

// Allow takes the current slot if it is already open
func (il *Interval) Allow() bool {
	return il.lim.Load().Allow()
}

// Wait reserves the next slot and sleeps until it opens. A cancelled
// waiter hands its slot back only when nobody reserved after it, so later
// waiters are never pulled forward. When ctx has a deadline that falls
// before the slot, Wait fails at once with context.DeadlineExceeded.
func (il *Interval) Wait(ctx context.Context) error {
	err := il.lim.Load().Wait(ctx)
	if err != nil && ctx.Err() == nil {
		if _, ok := ctx.Deadline(); ok {
			return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
	}
	return err
}

// Reset opens the next slot immediately. Waiters already sleeping keep
// their reservation on the previous limiter.
func (il *Interval) Reset() {
	il.lim.Store(rate.NewLimiter(il.limit, 1))
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time     // Last time the bucket was refilled
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		tb.mu.Lock()
		untilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if untilRefill <= 0 {
			untilRefill = 10 * time.Millisecond
		}
		if err := sleep(ctx, untilRefill); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill tops the bucket up once a whole period has passed
func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// SlidingWindow implements a sliding window rate limiter
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// Allow checks if a request can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}

	return false
}

// Wait blocks until the oldest request leaves the window
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		sw.mu.Lock()
		wait := 10 * time.Millisecond
		if len(sw.requests) > 0 {
			if d := sw.windowSize - time.Since(sw.requests[0]); d > 0 {
				wait = d
			}
		}
		sw.mu.Unlock()

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// cleanOldRequests drops requests that fell out of the window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && sw.requests[i].Before(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}
