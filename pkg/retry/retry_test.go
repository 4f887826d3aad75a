package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("conflict")

func fast(opts ...Option) *Retrier {
	return New(append([]Option{WithInitialDelay(0), WithMaxDelay(0), WithJitter(0)}, opts...)...)
}

func TestDo_RetriesRetryable(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(3)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errConflict)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustedReturnsUnwrapped(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(2)).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(errConflict)
	})

	assert.Equal(t, 2, calls)
	assert.Same(t, errConflict, err)
}

func TestDo_PlainErrorNotRetriedByDefault(t *testing.T) {
	calls := 0
	err := fast().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errConflict
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errConflict)
}

func TestDo_PermanentStops(t *testing.T) {
	calls := 0
	err := fast(WithRetryIf(func(error) bool { return true })).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(errConflict)
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, errConflict, err)
}

func TestConflictRetrier(t *testing.T) {
	r := ConflictRetrier(func(err error) bool { return errors.Is(err, errConflict) }).
		With(WithInitialDelay(0), WithMaxDelay(0))

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errConflict
	})
	assert.Equal(t, 5, calls)
	assert.ErrorIs(t, err, errConflict)
}

func TestCacheRetrier_SkipsRejected(t *testing.T) {
	errRejected := errors.New("rejected")
	r := CacheRetrier(func(err error) bool { return !errors.Is(err, errRejected) }).
		With(WithInitialDelay(0), WithMaxDelay(0))

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("io timeout")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errRejected
	})
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fast().Do(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDelay_Capped(t *testing.T) {
	r := New(WithInitialDelay(time.Second), WithMaxDelay(2*time.Second), WithJitter(0))
	assert.Equal(t, time.Second, r.delay(1))
	assert.Equal(t, 2*time.Second, r.delay(2))
	assert.Equal(t, 2*time.Second, r.delay(5))
}

func TestDoWithData(t *testing.T) {
	v, err := DoWithData(context.Background(), func(ctx context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
