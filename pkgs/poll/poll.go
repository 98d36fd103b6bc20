// Package poll drives a remote job to completion with a bounded number of
// fixed-interval queries.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrTimeout marks an exhausted attempt budget.
var ErrTimeout = errors.New("poll timeout")

// TimeoutError reports how long the loop waited before giving up.
type TimeoutError struct {
	Attempts int
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no terminal state after %d attempts (%s)", e.Attempts, e.Elapsed.Round(time.Millisecond))
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Config is the attempt budget for one loop.
type Config struct {
	MaxAttempts int
	Interval    time.Duration
}

// Validate rejects budgets that could never reach a result.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("poll: max attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.Interval < 0 {
		return fmt.Errorf("poll: interval must not be negative, got %s", c.Interval)
	}
	return nil
}

// State is the transient view of a running loop handed to observers.
type State[T any] struct {
	Attempt  int
	Elapsed  time.Duration
	Last     T
	Terminal bool
}

// Poller queries until Terminal reports true.
type Poller[T any] struct {
	Config   Config
	Query    func(context.Context) (T, error)
	Terminal func(T) bool
	// Observe, when set, sees every completed attempt.
	Observe func(State[T])
}

// Run is shorthand for a Poller without an observer.
func Run[T any](ctx context.Context, cfg Config, query func(context.Context) (T, error), terminal func(T) bool) (T, error) {
	return Poller[T]{Config: cfg, Query: query, Terminal: terminal}.Run(ctx)
}

// Run issues at most Config.MaxAttempts queries. A query error ends the loop
// immediately. No delay follows the final attempt.
func (p Poller[T]) Run(ctx context.Context) (T, error) {
	var zero T
	if err := p.Config.Validate(); err != nil {
		return zero, err
	}
	if p.Query == nil || p.Terminal == nil {
		return zero, errors.New("poll: query and terminal are required")
	}

	logger := zerolog.Ctx(ctx)
	start := time.Now()
	state := State[T]{}

	for attempt := 1; attempt <= p.Config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		last, err := p.Query(ctx)
		if err != nil {
			return zero, err
		}

		state.Attempt = attempt
		state.Elapsed = time.Since(start)
		state.Last = last
		state.Terminal = p.Terminal(last)
		if p.Observe != nil {
			p.Observe(state)
		}
		if state.Terminal {
			return last, nil
		}

		logger.Debug().
			Int("attempt", attempt).
			Int("max_attempts", p.Config.MaxAttempts).
			Msg("waiting for result")

		if attempt == p.Config.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.Config.Interval); err != nil {
			return zero, err
		}
	}

	return zero, &TimeoutError{Attempts: p.Config.MaxAttempts, Elapsed: time.Since(start)}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
