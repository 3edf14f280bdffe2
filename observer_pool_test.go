package xpubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverPool_DeliversAndDrainsOnClose(t *testing.T) {
	pool := NewObserverPool(context.Background(), 2, 64)

	var got atomic.Int64
	obs := ObserverFunc(func(BusEvent) { got.Add(1) })
	for i := 0; i < 20; i++ {
		pool.Notify(BusEvent{Type: EventEmitStart}, []Observer{obs, obs})
	}

	require.NoError(t, pool.Close(time.Second))
	assert.Equal(t, int64(40), got.Load())

	stats := pool.Stats()
	assert.Equal(t, uint64(20), stats.Processed)
	assert.Equal(t, 2, stats.Workers)
	assert.Equal(t, 64, stats.BufferSize)
}

func TestObserverPool_DropsWhenFull(t *testing.T) {
	pool := NewObserverPool(context.Background(), 1, 1)

	release := make(chan struct{})
	var started sync.Once
	running := make(chan struct{})
	blocker := ObserverFunc(func(BusEvent) {
		started.Do(func() { close(running) })
		<-release
	})

	pool.Notify(BusEvent{}, []Observer{blocker})
	<-running
	pool.Notify(BusEvent{}, []Observer{blocker}) // fills the buffer
	pool.Notify(BusEvent{}, []Observer{blocker}) // dropped

	assert.Equal(t, uint64(1), pool.Stats().Dropped)
	close(release)
	require.NoError(t, pool.Close(time.Second))
}

func TestObserverPool_RecoversObserverPanics(t *testing.T) {
	pool := NewObserverPool(context.Background(), 1, 8)

	var after atomic.Int64
	pool.Notify(BusEvent{}, []Observer{
		ObserverFunc(func(BusEvent) { panic("observer") }),
		ObserverFunc(func(BusEvent) { after.Add(1) }),
	})

	require.NoError(t, pool.Close(time.Second))
	assert.Equal(t, uint64(1), pool.Stats().Panics)
	assert.Equal(t, int64(1), after.Load())
}

func TestObserverPool_NotifyAfterCloseIsIgnored(t *testing.T) {
	pool := NewObserverPool(context.Background(), 1, 8)
	require.NoError(t, pool.Close(time.Second))
	require.NoError(t, pool.Close(time.Second))

	pool.Notify(BusEvent{}, []Observer{ObserverFunc(func(BusEvent) {})})
	assert.Zero(t, pool.Stats().ActiveEvents)
}

func TestBus_ObserverPoolCountsInMetrics(t *testing.T) {
	var got atomic.Int64
	bus, err := NewBusBuilder().
		WithTarget(newStubTarget()).
		WithObserver(ObserverFunc(func(BusEvent) { got.Add(1) })).
		WithObserverPool(2, 128).
		Build()
	require.NoError(t, err)

	bus.Listen("ping", counter(new(int)))
	require.NoError(t, bus.Emit(context.Background(), "ping", nil))
	require.NoError(t, bus.Close(context.Background()))

	// listener_installed, emit_start, emit_done
	assert.Equal(t, int64(3), got.Load())
	assert.Zero(t, bus.GetMetrics().EventsDropped)
}

func TestObserverPool_CloseDuringNotifyLosesNothing(t *testing.T) {
	for round := 0; round < 20; round++ {
		pool := NewObserverPool(context.Background(), 2, 4096)

		var delivered atomic.Uint64
		obs := []Observer{ObserverFunc(func(BusEvent) { delivered.Add(1) })}

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					pool.Notify(BusEvent{Type: EventEmitDone}, obs)
				}
			}()
		}
		require.NoError(t, pool.Close(5*time.Second))
		wg.Wait()

		stats := pool.Stats()
		assert.Zero(t, stats.ActiveEvents, "accepted events are drained")
		assert.Equal(t, delivered.Load(), stats.Processed)
	}
}
