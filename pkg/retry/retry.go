package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discogscatalog/pkg/config"
	errs "discogscatalog/pkg/errors"
	"discogscatalog/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func(ctx context.Context) error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts counts the first call; 1 disables retries
	MaxAttempts int
	Backoff     BackoffStrategy
	// BackoffFor overrides Backoff per error when set
	BackoffFor func(err error) BackoffStrategy
	RetryIf    func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// NoRetry runs an operation exactly once
func NoRetry() *Config {
	return &Config{MaxAttempts: 1, Backoff: &ConstantBackoff{}, RetryIf: DefaultRetryIf}
}

// FromConfig builds a retry policy from the retry section of the configuration
func FromConfig(rc config.RetryConfig, log logger.Logger) *Config {
	if rc.MaxAttempts <= 1 {
		cfg := NoRetry()
		cfg.Logger = log
		return cfg
	}

	base := &ExponentialBackoff{
		BaseDelay:    time.Duration(rc.InitialBackoffMs) * time.Millisecond,
		MaxDelay:     time.Duration(rc.MaxBackoffMs) * time.Millisecond,
		Multiplier:   rc.Multiplier,
		JitterFactor: 0.1,
	}
	byType := NewErrorTypeBackoff(base)

	return &Config{
		MaxAttempts: rc.MaxAttempts,
		Backoff:     base,
		BackoffFor:  byType.For,
		RetryIf:     DefaultRetryIf,
		Logger:      log,
	}
}

// DefaultRetryIf retries typed errors whose type is transient and
// never retries context cancellation.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return errs.IsRetryable(errs.TypeOf(err))
}

// Do executes op until it succeeds, fails with a non-retryable error,
// runs out of attempts, or ctx is done.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = NoRetry()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			return err
		}
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			if cfg.MaxAttempts == 1 {
				return err
			}
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt,
					"last_error": lastErr.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
		}

		backoff := cfg.Backoff
		if cfg.BackoffFor != nil {
			if b := cfg.BackoffFor(err); b != nil {
				backoff = b
			}
		}
		var delay time.Duration
		if backoff != nil {
			delay = backoff.NextDelay(attempt)
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, cfg)

	return result, err
}
