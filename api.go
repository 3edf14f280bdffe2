package xpubsub

import (
	"context"
)

// Target is the native dispatch primitive a Bus is anchored to: a node in the
// host tree. Targets are compared by identity, so implementations should be
// pointer types.
type Target interface {
	// AddEventListener installs a native subscription for eventType.
	AddEventListener(eventType string, l EventListener)
	// DispatchEvent delivers ev synchronously. It reports whether the event
	// was not cancelled, and the first listener error, which aborts dispatch.
	DispatchEvent(ev *Event) (bool, error)
}

// EventListener receives native events from a Target.
type EventListener interface {
	HandleEvent(ev *Event) error
}

// EventListenerFunc is an Adapter that lets a plain function satisfy EventListener.
type EventListenerFunc func(ev *Event) error

func (f EventListenerFunc) HandleEvent(ev *Event) error { return f(ev) }

// Handler processes one delivered event. A returned error aborts the current
// fan-out pass and propagates out of Emit.
type Handler func(ctx context.Context, ev *Event) error

// Middleware composes processing concerns around a Handler.
type Middleware func(next Handler) Handler

// Observer receives bus lifecycle events. Implementations should be non-blocking.
type Observer interface {
	OnBusEvent(e BusEvent)
}

// HealthChecker provides health status for production monitoring.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// API represents the complete xpubsub surface.
type API interface {
	Emit(ctx context.Context, eventName string, payload Payload) error
	Listen(eventName string, h Handler)
	ListenOnce(eventName string, h Handler)
	ListenTimes(eventName string, n int, h Handler)
	Unlisten(eventName string, h Handler)
	UnlistenAll(eventName string)
	Events(eventNames ...string) EventSet
	Attach(target Target) *Bus
	Target() Target
	Close(ctx context.Context) error
	GetMetrics() Metrics
	Health(ctx context.Context) HealthStatus
	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
}

var _ API = (*Bus)(nil)
var _ HealthChecker = (*Bus)(nil)
