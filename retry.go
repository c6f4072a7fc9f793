package conduit

import (
	"context"
	"time"

	internalbackoff "github.com/ambiyansyah-risyal/conduit/internal/backoff"
)

const (
	defaultRetries         = 3
	defaultRetryDelay      = 1000 * time.Millisecond
	defaultRetryMultiplier = 2.0
)

// RetryConfig controls Retry. Every error is retried the same way; there is
// no classification of transient versus permanent failures.
type RetryConfig struct {
	Retries    int
	Delay      time.Duration
	Multiplier float64

	// OnRetry, when set, is called before each wait with the zero based
	// attempt that just failed, its error and the upcoming delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// RetryOption adjusts a RetryConfig.
type RetryOption func(*RetryConfig)

// DefaultRetryConfig returns 3 retries starting at 1s and doubling.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Retries:    defaultRetries,
		Delay:      defaultRetryDelay,
		Multiplier: defaultRetryMultiplier,
	}
}

// Schedule lists the waits Retry sleeps through when every attempt fails.
func (c RetryConfig) Schedule() []time.Duration {
	return internalbackoff.Schedule(c.strategy(), c.Retries)
}

// MaxWait is the total of Schedule.
func (c RetryConfig) MaxWait() time.Duration {
	return internalbackoff.Total(c.strategy(), c.Retries)
}

func (c RetryConfig) strategy() internalbackoff.Geometric {
	return internalbackoff.Geometric{Initial: c.Delay, Multiplier: c.Multiplier}
}

// RetryCount sets how many times a failed operation is re-invoked.
func RetryCount(n int) RetryOption {
	return func(c *RetryConfig) { c.Retries = n }
}

// RetryDelay sets the wait before the first retry.
func RetryDelay(d time.Duration) RetryOption {
	return func(c *RetryConfig) { c.Delay = d }
}

// RetryMultiplier sets the factor applied to the wait after each retry.
func RetryMultiplier(m float64) RetryOption {
	return func(c *RetryConfig) { c.Multiplier = m }
}

// OnRetry registers a hook invoked before each wait.
func OnRetry(fn func(attempt int, err error, delay time.Duration)) RetryOption {
	return func(c *RetryConfig) { c.OnRetry = fn }
}

// Retry runs op and, while it fails and retries remain, sleeps and runs it
// again with the delay multiplied after each wait. When retries are exhausted
// the last error is returned unchanged. Cancelling ctx during a wait returns
// ctx.Err().
func Retry(ctx context.Context, op func(context.Context) error, opts ...RetryOption) error {
	_, err := RetryValue(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}

// RetryValue is Retry for operations that produce a value.
func RetryValue[T any](ctx context.Context, op func(context.Context) (T, error), opts ...RetryOption) (T, error) {
	cfg := DefaultRetryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return retryWith(ctx, cfg, op)
}

func retryWith[T any](ctx context.Context, cfg RetryConfig, op func(context.Context) (T, error)) (T, error) {
	strategy := cfg.strategy()

	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= cfg.Retries {
			return v, err
		}

		delay := strategy.Delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				var zero T
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
}
