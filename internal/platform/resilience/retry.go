package resilience

import (
	"context"
	"time"
)

// RetryClass tells the retry loop how to treat a failed attempt.
type RetryClass int

const (
	RetryNever RetryClass = iota
	RetryTransient
	RetryRateLimited
)

func (c RetryClass) String() string {
	switch c {
	case RetryTransient:
		return "transient"
	case RetryRateLimited:
		return "rate_limited"
	default:
		return "never"
	}
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
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

// Delay returns the wait before the next attempt for the given failure class.
func (p RetryPolicy) Delay(class RetryClass) time.Duration {
	p = NormalizeRetryPolicy(p)
	if class == RetryRateLimited {
		return p.BaseDelay * time.Duration(p.RateLimitMultiplier)
	}
	return p.BaseDelay
}

// Retry runs fn until it succeeds, classify says RetryNever, or MaxRetries
// retries are spent. The last error is returned unchanged.
func Retry[T any](
	ctx context.Context,
	policy RetryPolicy,
	sleep Sleeper,
	classify func(error) RetryClass,
	fn func(attempt int) (T, error),
) (T, error) {
	policy = NormalizeRetryPolicy(policy)
	if sleep == nil {
		sleep = SleepContext
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := fn(attempt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		class := RetryTransient
		if classify != nil {
			class = classify(err)
		}
		if class == RetryNever || attempt == policy.MaxRetries {
			break
		}
		if err := sleep(ctx, policy.Delay(class)); err != nil {
			return zero, err
		}
	}

	return zero, lastErr
}
