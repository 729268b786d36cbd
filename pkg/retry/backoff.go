package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	errs "discogscatalog/pkg/errors"
)

// BackoffStrategy defines the interface for different backoff strategies
type BackoffStrategy interface {
	// NextDelay returns the delay before retry number attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor adds up to ±factor of randomness (0.0 to 1.0)
	JitterFactor float64
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	multiplier := eb.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(eb.BaseDelay) * math.Pow(multiplier, float64(attempt-1))
	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrorTypeBackoff picks a backoff by the failure's error type.
// Discogs answers 429 when the per-minute budget is spent, so rate limit
// failures wait much longer than transient network or server failures.
type ErrorTypeBackoff struct {
	RateLimit BackoffStrategy
	Default   BackoffStrategy
}

// NewErrorTypeBackoff uses base for ordinary failures and a minute-scale
// backoff for rate limit failures.
func NewErrorTypeBackoff(base BackoffStrategy) *ErrorTypeBackoff {
	return &ErrorTypeBackoff{
		RateLimit: &ExponentialBackoff{
			BaseDelay:    30 * time.Second,
			MaxDelay:     2 * time.Minute,
			Multiplier:   1.5,
			JitterFactor: 0.2,
		},
		Default: base,
	}
}

// For returns the strategy matching err
func (etb *ErrorTypeBackoff) For(err error) BackoffStrategy {
	var apiErr *errs.Error
	if errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeRateLimit && etb.RateLimit != nil {
		return etb.RateLimit
	}
	return etb.Default
}
