package xpubsub

import (
	"context"
	"sync"
)

var (
	defaultBus   *Bus
	defaultBusMu sync.RWMutex
)

// Default returns the process-wide Bus installed by SetDefault (or an adapter's Use).
func Default() (*Bus, error) {
	defaultBusMu.RLock()
	defer defaultBusMu.RUnlock()
	if defaultBus == nil {
		return nil, ErrDefaultBusNotInitialized
	}
	return defaultBus, nil
}

// SetDefault installs the process-wide default Bus. It is never torn down.
func SetDefault(b *Bus) {
	if b == nil {
		panic("xpubsub: SetDefault called with nil Bus")
	}
	defaultBusMu.Lock()
	defaultBus = b
	defaultBusMu.Unlock()
}

// Emit is the Facade using the default bus.
func Emit(ctx context.Context, eventName string, payload Payload) error {
	b, err := Default()
	if err != nil {
		return err
	}
	return b.Emit(ctx, eventName, payload)
}

// Listen is the Facade using the default bus.
func Listen(eventName string, h Handler) error {
	b, err := Default()
	if err != nil {
		return err
	}
	b.Listen(eventName, h)
	return nil
}

// ListenOnce is the Facade using the default bus.
func ListenOnce(eventName string, h Handler) error {
	b, err := Default()
	if err != nil {
		return err
	}
	b.ListenOnce(eventName, h)
	return nil
}

// ListenTimes is the Facade using the default bus.
func ListenTimes(eventName string, n int, h Handler) error {
	b, err := Default()
	if err != nil {
		return err
	}
	b.ListenTimes(eventName, n, h)
	return nil
}

// Unlisten is the Facade using the default bus.
func Unlisten(eventName string, h Handler) error {
	b, err := Default()
	if err != nil {
		return err
	}
	b.Unlisten(eventName, h)
	return nil
}

// UnlistenAll is the Facade using the default bus.
func UnlistenAll(eventName string) error {
	b, err := Default()
	if err != nil {
		return err
	}
	b.UnlistenAll(eventName)
	return nil
}

// Attach is the Facade using the default bus.
func Attach(target Target) (*Bus, error) {
	b, err := Default()
	if err != nil {
		return nil, err
	}
	return b.Attach(target), nil
}
