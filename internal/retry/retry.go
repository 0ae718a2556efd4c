package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrExhausted = errors.New("retries exhausted")

// Policy is a bounded retry schedule: one attempt plus MaxRetries retries, with
// the wait before retry n being InitialBackoff * Multiplier^(n-1).
type Policy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	Multiplier     float64
	// AttemptTimeout bounds each attempt. Zero means no bound.
	AttemptTimeout time.Duration
	// Limiter, when set, spaces attempts out across all callers sharing it.
	Limiter *rate.Limiter
	Logger  *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     2,
		InitialBackoff: time.Second,
		Multiplier:     2,
	}
}

// Backoff returns the wait before the given retry (1-based).
func (p Policy) Backoff(retry int) time.Duration {
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}
	d := float64(p.InitialBackoff)
	for i := 1; i < retry; i++ {
		d *= mult
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds or the policy is exhausted. The returned error
// wraps both ErrExhausted and the last attempt's error.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	attempts := p.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := p.Backoff(attempt - 1)
			if err := sleep(ctx, wait); err != nil {
				return zero, fmt.Errorf("retry aborted: %w", err)
			}
		}
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return zero, fmt.Errorf("retry aborted: %w", err)
			}
		}

		v, err := runAttempt(ctx, p.AttemptTimeout, fn)
		if err == nil {
			return v, nil
		}
		lastErr = err
		logger.Warn("Attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
