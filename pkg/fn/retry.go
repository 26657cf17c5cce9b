package fn

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryOpts configures Retry.
type RetryOpts struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	// Jitter scales each wait by a random factor in [0.5, 1.5).
	Jitter bool
	// Retryable decides whether a failed attempt is worth repeating.
	// Nil means every error is retried.
	Retryable func(error) bool
}

// DefaultRetry suits calls to a nearby database.
var DefaultRetry = RetryOpts{
	MaxAttempts: 3,
	InitialWait: 200 * time.Millisecond,
	MaxWait:     5 * time.Second,
	Jitter:      true,
}

// Retry calls f until it succeeds, returns an error Retryable rejects, or
// MaxAttempts is reached, doubling the wait between attempts. The last
// Result is returned; ctx ending during a wait returns ctx.Err().
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	attempts := max(opts.MaxAttempts, 1)
	wait := opts.InitialWait
	for attempt := 1; ; attempt++ {
		r := f(ctx)
		if r.IsOk() || attempt == attempts || (opts.Retryable != nil && !opts.Retryable(r.err)) {
			return r
		}

		t := time.NewTimer(opts.delay(wait))
		select {
		case <-ctx.Done():
			t.Stop()
			return Err[T](ctx.Err())
		case <-t.C:
		}
		wait *= 2
	}
}

func (o RetryOpts) delay(wait time.Duration) time.Duration {
	if o.Jitter {
		wait = time.Duration(float64(wait) * (0.5 + rand.Float64()))
	}
	if o.MaxWait > 0 && wait > o.MaxWait {
		wait = o.MaxWait
	}
	return wait
}
