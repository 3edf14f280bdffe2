package xpubsub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_FirstMiddlewareIsOutermost(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, ev *Event) error {
				order = append(order, name+">")
				err := next(ctx, ev)
				order = append(order, "<"+name)
				return err
			}
		}
	}
	h := Chain(func(context.Context, *Event) error {
		order = append(order, "handler")
		return nil
	}, mw("a"), nil, mw("b"))

	require.NoError(t, h(context.Background(), NewEvent("x", EventInit{})))
	assert.Equal(t, []string{"a>", "b>", "handler", "<b", "<a"}, order)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware()(func(context.Context, *Event) error { panic("kaboom") })

	err := h(context.Background(), NewEvent("x", EventInit{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestRecoveryMiddleware_OnBus(t *testing.T) {
	st := newStubTarget()
	bus, err := NewBusBuilder().WithTarget(st).WithMiddleware(RecoveryMiddleware()).Build()
	require.NoError(t, err)

	var after int
	bus.Listen("ping", func(context.Context, *Event) error { panic("kaboom") })
	bus.Listen("ping", counter(&after))

	err = bus.Emit(context.Background(), "ping", nil)
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.Equal(t, 0, after)
}

func TestIsolateMiddleware_KeepsPassRunning(t *testing.T) {
	st := newStubTarget()
	bus, err := NewBusBuilder().
		WithTarget(st).
		WithMiddleware(IsolateMiddleware(nil), RecoveryMiddleware()).
		Build()
	require.NoError(t, err)

	var once, after int
	bus.ListenOnce("ping", counter(&once))
	bus.Listen("ping", func(context.Context, *Event) error { return errors.New("nope") })
	bus.Listen("ping", func(context.Context, *Event) error { panic("kaboom") })
	bus.Listen("ping", counter(&after))

	require.NoError(t, bus.Emit(context.Background(), "ping", nil))
	require.NoError(t, bus.Emit(context.Background(), "ping", nil))

	assert.Equal(t, 1, once)
	assert.Equal(t, 2, after)
	assert.Equal(t, 3, bus.ListenerCount("ping"))
	assert.Zero(t, bus.GetMetrics().HandlerErrors)
}

func TestRetryMiddleware(t *testing.T) {
	transient := errors.New("transient")
	permanent := errors.New("permanent")

	t.Run("succeeds after retries", func(t *testing.T) {
		calls := 0
		h := RetryMiddleware(RetryConfig{MaxAttempts: 3})(func(context.Context, *Event) error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		})
		require.NoError(t, h(context.Background(), NewEvent("x", EventInit{})))
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		h := RetryMiddleware(RetryConfig{
			MaxAttempts: 2,
			Backoff:     func(int) time.Duration { return time.Millisecond },
		})(func(context.Context, *Event) error {
			calls++
			return transient
		})
		assert.ErrorIs(t, h(context.Background(), NewEvent("x", EventInit{})), transient)
		assert.Equal(t, 2, calls)
	})

	t.Run("respects RetryIf", func(t *testing.T) {
		calls := 0
		h := RetryMiddleware(RetryConfig{
			MaxAttempts: 5,
			RetryIf:     func(err error) bool { return !errors.Is(err, permanent) },
		})(func(context.Context, *Event) error {
			calls++
			return permanent
		})
		assert.ErrorIs(t, h(context.Background(), NewEvent("x", EventInit{})), permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		calls := 0
		h := RetryMiddleware(RetryConfig{MaxAttempts: 5})(func(context.Context, *Event) error {
			calls++
			return transient
		})
		assert.ErrorIs(t, h(ctx, NewEvent("x", EventInit{})), transient)
		assert.Equal(t, 1, calls)
	})
}
