// Package retry reruns failing operations with capped exponential
// backoff and jitter. Callers classify each failure as retryable or
// permanent; unclassified errors stop the loop.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// markedError carries the caller's retry classification.
type markedError struct {
	err       error
	retriable bool
}

func (e *markedError) Error() string { return e.err.Error() }
func (e *markedError) Unwrap() error { return e.err }

// Retryable marks an error as transient. The retrier will rerun the
// operation until attempts are exhausted.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err, retriable: true}
}

// Permanent marks an error as final. The retrier returns it (unwrapped)
// immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &markedError{err: err}
}

// IsRetryable reports whether err carries the transient mark.
func IsRetryable(err error) bool {
	var m *markedError
	return errors.As(err, &m) && m.retriable
}

// IsPermanent reports whether err carries the final mark.
func IsPermanent(err error) bool {
	var m *markedError
	return errors.As(err, &m) && !m.retriable
}

// Policy describes how a Retrier backs off.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// CapDelay bounds the wait between retries.
	CapDelay time.Duration

	// Growth is the backoff multiplier per attempt.
	Growth float64

	// Jitter is the fraction of the delay randomized in each
	// direction, 0 to 1.
	Jitter float64

	// OnRetry, when set, observes each scheduled retry.
	OnRetry func(attempt int, err error, wait time.Duration)
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.CapDelay <= 0 {
		p.CapDelay = 30 * time.Second
	}
	if p.Growth < 1 {
		p.Growth = 2
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = 0.1
	}
	return p
}

// Retrier executes operations under one Policy. Safe for concurrent
// use.
type Retrier struct {
	policy Policy
}

// New builds a Retrier, filling unset policy fields with defaults.
func New(policy Policy) *Retrier {
	return &Retrier{policy: policy.withDefaults()}
}

// Do runs op until it succeeds, fails permanently, fails without a
// classification, or attempts run out. Context cancellation stops the
// loop between attempts and returns the last seen error when there is
// one.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if lastErr != nil {
				return lastErr
			}
			return ctxErr
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == r.policy.Attempts {
			return errors.Unwrap(err)
		}

		wait := r.backoff(attempt)
		if r.policy.OnRetry != nil {
			r.policy.OnRetry(attempt, err, wait)
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(wait):
		}
	}
}

// backoff computes the wait before the retry following the given
// attempt.
func (r *Retrier) backoff(attempt int) time.Duration {
	d := r.policy.BaseDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * r.policy.Growth)
		if d >= r.policy.CapDelay {
			d = r.policy.CapDelay
			break
		}
	}

	if j := r.policy.Jitter; j > 0 {
		spread := (rand.Float64()*2 - 1) * j // [-j, +j]
		d += time.Duration(float64(d) * spread)
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Presets tuned for the platform's dependencies.

// EngineRetrier backs off slowly; the engine rate-limits aggressive
// clients.
func EngineRetrier() *Retrier {
	return New(Policy{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		CapDelay:  10 * time.Second,
		Jitter:    0.2,
	})
}

// DriveRetrier gives up fast: link resolution degrades gracefully, so
// a stalled provider should not hold up content reads.
func DriveRetrier() *Retrier {
	return New(Policy{
		Attempts:  2,
		BaseDelay: 200 * time.Millisecond,
		CapDelay:  2 * time.Second,
		Jitter:    0.1,
	})
}

// DatabaseRetrier retries quickly for transient connection errors.
func DatabaseRetrier() *Retrier {
	return New(Policy{
		Attempts:  3,
		BaseDelay: 50 * time.Millisecond,
		CapDelay:  time.Second,
		Jitter:    0.05,
	})
}
