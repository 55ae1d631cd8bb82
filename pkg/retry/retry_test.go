package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassification(t *testing.T) {
	base := errors.New("boom")

	assert.True(t, IsRetryable(Retryable(base)))
	assert.False(t, IsPermanent(Retryable(base)))
	assert.True(t, IsPermanent(Permanent(base)))
	assert.False(t, IsRetryable(Permanent(base)))

	assert.Nil(t, Retryable(nil))
	assert.Nil(t, Permanent(nil))

	// The mark wraps, it does not replace.
	assert.ErrorIs(t, Retryable(base), base)
}

func TestDo(t *testing.T) {
	fast := Policy{Attempts: 3, BaseDelay: time.Millisecond, CapDelay: 2 * time.Millisecond, Jitter: 0}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := New(fast).Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return Retryable(errors.New("transient"))
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		base := errors.New("bad request")
		calls := 0
		err := New(fast).Do(context.Background(), func(context.Context) error {
			calls++
			return Permanent(base)
		})

		assert.Equal(t, base, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("unclassified error stops immediately", func(t *testing.T) {
		calls := 0
		err := New(fast).Do(context.Background(), func(context.Context) error {
			calls++
			return errors.New("unmarked")
		})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausted attempts return the unwrapped error", func(t *testing.T) {
		base := errors.New("still down")
		calls := 0
		err := New(fast).Do(context.Background(), func(context.Context) error {
			calls++
			return Retryable(base)
		})

		assert.Equal(t, base, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context stops between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := New(Policy{Attempts: 5, BaseDelay: 50 * time.Millisecond, Jitter: 0}).Do(ctx, func(context.Context) error {
			calls++
			cancel()
			return Retryable(errors.New("transient"))
		})

		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("on retry observes each wait", func(t *testing.T) {
		var waits []time.Duration
		p := fast
		p.OnRetry = func(_ int, _ error, wait time.Duration) {
			waits = append(waits, wait)
		}
		_ = New(p).Do(context.Background(), func(context.Context) error {
			return Retryable(errors.New("transient"))
		})

		assert.Len(t, waits, 2)
	})
}

func TestBackoffGrowthAndCap(t *testing.T) {
	r := New(Policy{Attempts: 10, BaseDelay: 10 * time.Millisecond, CapDelay: 40 * time.Millisecond, Growth: 2, Jitter: 0})

	assert.Equal(t, 10*time.Millisecond, r.backoff(1))
	assert.Equal(t, 20*time.Millisecond, r.backoff(2))
	assert.Equal(t, 40*time.Millisecond, r.backoff(3))
	assert.Equal(t, 40*time.Millisecond, r.backoff(8))
}
