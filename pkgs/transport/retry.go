package transport

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy bounds WithRetry.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// OnRetry runs before each re-attempt with the attempt number that failed.
	OnRetry func(attempt int, err error)
}

// DefaultRetryPolicy is three attempts two seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second}
}

// WithRetry calls fn until it succeeds, fails with something other than a
// transport error, or the policy runs out of attempts. The last error is
// returned unchanged.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	logger := zerolog.Ctx(ctx)

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrTransport) || attempt == attempts || ctx.Err() != nil {
			return result, err
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("delay", policy.Delay).
			Msg("request failed, retrying")
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}

		if policy.Delay > 0 {
			timer := time.NewTimer(policy.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				var zero T
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return result, err
}
