package dom

import (
	"fmt"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
	"github.com/trickstertwo/xpubsub"
)

const (
	// ContentLoadedEvent is fired by Node.ContentLoaded.
	ContentLoadedEvent = "DOMContentLoaded"
	// ReadyEvent is emitted by the default bus once the document has loaded.
	ReadyEvent = "pubsub:ready"
)

// Use builds the root Bus on doc, installs it as the process-wide default and
// emits ReadyEvent (a plain event, no detail) when doc fires ContentLoadedEvent.
//
// Example:
//
//	doc := dom.NewDocument()
//	bus := dom.Use(doc,
//	    dom.WithLogger(logger),
//	    dom.WithObserverPool(4, 1024),
//	)
//	_ = doc.ContentLoaded()
func Use(doc *Node, opts ...Option) *xpubsub.Bus {
	bb := xpubsub.NewBusBuilder().WithTarget(doc)
	for _, o := range opts {
		if o != nil {
			o(bb)
		}
	}

	bus, err := bb.Build()
	if err != nil {
		panic(fmt.Errorf("dom.Use: %w", err))
	}

	doc.AddEventListener(ContentLoadedEvent, xpubsub.EventListenerFunc(func(ev *xpubsub.Event) error {
		return bus.Emit(ev.Context(), ReadyEvent, nil)
	}))

	xpubsub.SetDefault(bus)
	return bus
}

// Option configures the xpubsub.Bus when calling Use.
type Option func(*xpubsub.BusBuilder)

// WithLogger injects a custom xlog logger.
func WithLogger(l *xlog.Logger) Option {
	return func(b *xpubsub.BusBuilder) { b.WithLogger(l) }
}

// WithClock injects a custom xclock clock.
func WithClock(c xclock.Clock) Option {
	return func(b *xpubsub.BusBuilder) { b.WithClock(c) }
}

// WithCodec selects a codec by name (default: "json").
func WithCodec(name string) Option {
	return func(b *xpubsub.BusBuilder) { b.WithCodec(name) }
}

// WithMiddleware wraps every handler registered on the bus tree.
func WithMiddleware(mw ...xpubsub.Middleware) Option {
	return func(b *xpubsub.BusBuilder) { b.WithMiddleware(mw...) }
}

// WithObserver attaches observers for lifecycle events.
func WithObserver(obs ...xpubsub.Observer) Option {
	return func(b *xpubsub.BusBuilder) { b.WithObserver(obs...) }
}

// WithObserverPool delivers observer notifications asynchronously.
func WithObserverPool(workers, bufferSize int) Option {
	return func(b *xpubsub.BusBuilder) { b.WithObserverPool(workers, bufferSize) }
}
