package xpubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetDefault(t *testing.T) {
	t.Helper()
	defaultBusMu.Lock()
	prev := defaultBus
	defaultBus = nil
	defaultBusMu.Unlock()
	t.Cleanup(func() {
		defaultBusMu.Lock()
		defaultBus = prev
		defaultBusMu.Unlock()
	})
}

func TestFacade_NotInitialized(t *testing.T) {
	resetDefault(t)

	_, err := Default()
	assert.ErrorIs(t, err, ErrDefaultBusNotInitialized)
	assert.ErrorIs(t, Emit(context.Background(), "x", nil), ErrDefaultBusNotInitialized)
	assert.ErrorIs(t, Listen("x", counter(new(int))), ErrDefaultBusNotInitialized)
	assert.ErrorIs(t, UnlistenAll("x"), ErrDefaultBusNotInitialized)
	_, err = Attach(newStubTarget())
	assert.ErrorIs(t, err, ErrDefaultBusNotInitialized)
	assert.Panics(t, func() { SetDefault(nil) })
}

func TestFacade_DelegatesToDefault(t *testing.T) {
	resetDefault(t)
	bus := newTestBus(t, newStubTarget())
	SetDefault(bus)

	var every, once, twice int
	h := counter(&every)
	require.NoError(t, Listen("tick", h))
	require.NoError(t, ListenOnce("tick", counter(&once)))
	require.NoError(t, ListenTimes("tick", 2, counter(&twice)))

	for i := 0; i < 3; i++ {
		require.NoError(t, Emit(context.Background(), "tick", nil))
	}
	assert.Equal(t, 3, every)
	assert.Equal(t, 1, once)
	assert.Equal(t, 2, twice)

	require.NoError(t, Unlisten("tick", h))
	assert.Equal(t, 0, bus.ListenerCount("tick"))

	child, err := Attach(newStubTarget())
	require.NoError(t, err)
	assert.Len(t, bus.Attached(), 1)
	assert.Same(t, bus.Attached()[0], child)
}
