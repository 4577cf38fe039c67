package registration

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy retries a call with exponential backoff: the n-th wait
// (starting at 0) is InitialDelay * 2^n. There is no wait after the last
// attempt.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	// OnRetry observes every wait before it starts.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: 5 * time.Second}
}

// withDefaults fills the unset fields from DefaultRetryPolicy and keeps the
// rest, OnRetry included.
func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = d.InitialDelay
	}
	return p
}

// Do calls fn until it succeeds, returns an error retryable rejects, or the
// attempts run out. In the last case the final error is returned.
func (p RetryPolicy) Do(ctx context.Context, retryable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)

	var (
		attempt int
		lastErr error
	)

	var base retry.Backoff
	if p.InitialDelay > 0 {
		base = retry.NewExponential(p.InitialDelay)
	} else {
		base = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	limited := retry.WithMaxRetries(uint64(attempts-1), base)

	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := limited.Next()
		if stop {
			return 0, true
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, lastErr)
		}
		attempt++
		return delay, false
	})

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && retryable(err) {
			lastErr = err
			return retry.RetryableError(err)
		}
		return err
	})
}
