package common

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds every attempt with Timeout and doubles Backoff between
// attempts, capped at MaxBackoff.
type RetryPolicy struct {
	Attempts   int
	Timeout    time.Duration
	Backoff    time.Duration
	MaxBackoff time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	Attempts:   3,
	Timeout:    5 * time.Second,
	Backoff:    100 * time.Millisecond,
	MaxBackoff: 2 * time.Second,
}

// BackOff builds the schedule between attempts. Intervals are not
// randomized and there is no elapsed time limit; Attempts is the only bound.
func (p RetryPolicy) BackOff() backoff.BackOff {
	if p.Attempts <= 1 {
		// WithMaxRetries treats 0 as unlimited
		return &backoff.StopBackOff{}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Backoff
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.MaxBackoff
	if b.MaxInterval <= 0 {
		b.MaxInterval = time.Duration(1<<63 - 1)
	}
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithMaxRetries(b, uint64(p.Attempts-1))
}

// Retry runs op until it succeeds, the attempts are used up or ctx is done.
// The last error of op is returned, joined with ctx's error when ctx ended
// the retries.
func Retry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	var lastErr error
	err := backoff.Retry(func() error {
		lastErr = runAttempt(ctx, policy.Timeout, op)
		return lastErr
	}, backoff.WithContext(policy.BackOff(), ctx))

	if err != nil && ctx.Err() != nil && lastErr != nil && !errors.Is(lastErr, ctx.Err()) {
		return errors.Join(lastErr, ctx.Err())
	}
	return err
}

func runAttempt(ctx context.Context, timeout time.Duration, op func(ctx context.Context) error) error {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}
