package xpubsub

import (
	"context"
	"io"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
	"go.uber.org/multierr"
)

// Bus is the subscribe/emit Facade scoped to one Target. Buses created by
// Attach share configuration, observers and metrics with their parent.
type Bus struct {
	target  Target
	core    *core
	emitter *Emitter

	mu        sync.RWMutex
	listeners map[string]*Listener
	attached  []*Bus
	byTarget  map[Target]*Bus
}

// core is the state shared by a root Bus and every Bus attached below it.
type core struct {
	codec        Codec
	clock        xclock.Clock
	logger       *xlog.Logger
	middlewares  []Middleware
	observerPool *ObserverPool
	observersMu  sync.RWMutex
	observers    []Observer
	metrics      *busMetrics
	closed       atomic.Bool
	closeOnce    sync.Once
}

// busMetrics uses lock-free atomics for telemetry.
type busMetrics struct {
	emitCount     atomic.Uint64
	deliverCount  atomic.Uint64
	errorCount    atomic.Uint64
	listenerCount atomic.Uint64
	attachCount   atomic.Uint64
	processingNs  atomic.Int64
}

func newBus(target Target, c *core) *Bus {
	return &Bus{
		target:    target,
		core:      c,
		emitter:   NewEmitter(target, c.clock),
		listeners: make(map[string]*Listener),
		byTarget:  make(map[Target]*Bus),
	}
}

// Target returns the node this Bus is scoped to.
func (b *Bus) Target() Target { return b.target }

// Codec returns the configured codec (Strategy).
func (b *Bus) Codec() Codec { return b.core.codec }

// Emit dispatches eventName on the Bus's Target and returns once every
// matching handler has run. A nil payload emits a plain event; otherwise the
// reserved keys become delivery flags and the rest becomes the detail.
func (b *Bus) Emit(ctx context.Context, eventName string, payload Payload) error {
	if b.core.closed.Load() {
		return ErrBusClosed
	}
	if eventName == "" {
		return ErrInvalidEventName
	}
	if ctx == nil {
		ctx = context.Background()
	}

	b.core.metrics.emitCount.Add(1)
	b.core.notify(BusEvent{Type: EventEmitStart, EventName: eventName})

	start := b.core.clock.Now()
	_, err := b.emitter.Send(ctx, eventName, payload)

	b.core.notify(BusEvent{
		Type:      EventEmitDone,
		EventName: eventName,
		Duration:  b.core.clock.Since(start),
		Err:       err,
	})
	return err
}

// Listen registers h for every future eventName delivery.
func (b *Bus) Listen(eventName string, h Handler) { b.Events(eventName).Listen(h) }

// ListenOnce registers h for the next eventName delivery only.
func (b *Bus) ListenOnce(eventName string, h Handler) { b.Events(eventName).ListenOnce(h) }

// ListenTimes registers h for at most n eventName deliveries.
func (b *Bus) ListenTimes(eventName string, n int, h Handler) {
	b.Events(eventName).ListenTimes(n, h)
}

// Unlisten removes the handlers registered with h. A nil h is ignored.
func (b *Bus) Unlisten(eventName string, h Handler) { b.Events(eventName).Unlisten(h) }

// UnlistenAll removes every handler for eventName.
func (b *Bus) UnlistenAll(eventName string) { b.Events(eventName).UnlistenAll() }

// Events selects one or more event names; each operation on the result is
// applied to every name independently, in order.
func (b *Bus) Events(eventNames ...string) EventSet {
	names := make([]string, len(eventNames))
	copy(names, eventNames)
	return EventSet{bus: b, names: names}
}

// ListenerCount returns the number of handlers registered for eventName.
func (b *Bus) ListenerCount(eventName string) int {
	b.mu.RLock()
	l, ok := b.listeners[eventName]
	b.mu.RUnlock()
	if !ok {
		return 0
	}
	return l.Len()
}

// listener returns the Listener for eventName, creating it on first use.
func (b *Bus) listener(eventName string) *Listener {
	b.mu.RLock()
	l, ok := b.listeners[eventName]
	b.mu.RUnlock()
	if ok {
		return l
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok = b.listeners[eventName]; ok {
		return l
	}
	l = newListener(b.target, eventName, b.core)
	b.listeners[eventName] = l
	return l
}

// Attach returns the Bus scoped to target, creating it on the first call for
// that target. Targets are compared by identity.
func (b *Bus) Attach(target Target) *Bus {
	if target == nil {
		panic("xpubsub: Attach called with nil Target")
	}

	b.mu.Lock()
	if child, ok := b.byTarget[target]; ok {
		b.mu.Unlock()
		return child
	}
	child := newBus(target, b.core)
	b.byTarget[target] = child
	b.attached = append(b.attached, child)
	b.mu.Unlock()

	b.core.metrics.attachCount.Add(1)
	b.core.notify(BusEvent{Type: EventAttach})
	return child
}

// Attached returns the buses attached to b, in order of first attachment.
func (b *Bus) Attached() []*Bus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Bus, len(b.attached))
	copy(out, b.attached)
	return out
}

// GetMetrics returns current metrics, shared by the whole attachment tree.
func (b *Bus) GetMetrics() Metrics {
	m := b.core.metrics
	var dropped uint64
	if b.core.observerPool != nil {
		dropped = b.core.observerPool.Stats().Dropped
	}
	return Metrics{
		Emitted:             m.emitCount.Load(),
		Delivered:           m.deliverCount.Load(),
		HandlerErrors:       m.errorCount.Load(),
		Listeners:           m.listenerCount.Load(),
		Attached:            m.attachCount.Load(),
		EventsDropped:       dropped,
		AvgProcessingTimeMs: float64(m.processingNs.Load()) / 1e6,
	}
}

// Health checks bus health for Kubernetes probes.
func (b *Bus) Health(ctx context.Context) HealthStatus {
	now := b.core.clock.Now()
	if b.core.closed.Load() {
		return HealthStatus{Status: "unhealthy", Timestamp: now, Message: "bus is closed"}
	}

	metrics := b.GetMetrics()
	status := "healthy"

	// Degraded if more than 5% of handler runs fail.
	if metrics.HandlerErrors > 0 {
		runs := metrics.Delivered + metrics.HandlerErrors
		if float64(metrics.HandlerErrors)/float64(runs) > 0.05 {
			status = "degraded"
		}
	}

	return HealthStatus{Status: status, Metrics: metrics, Timestamp: now}
}

// Close shuts down the shared state of the attachment tree: later Emit calls
// fail with ErrBusClosed, the observer pool is drained and observers that
// implement io.Closer are closed. Native subscriptions stay installed.
func (b *Bus) Close(ctx context.Context) error {
	var closeErr error

	b.core.closeOnce.Do(func() {
		b.core.closed.Store(true)

		if b.core.observerPool != nil {
			timeout := 5 * time.Second
			if deadline, ok := ctx.Deadline(); ok {
				timeout = time.Until(deadline)
			}
			if err := b.core.observerPool.Close(timeout); err != nil {
				b.core.logger.Warn().Err(err).Msg("xpubsub: observer pool shutdown timeout")
				closeErr = multierr.Append(closeErr, err)
			}
		}

		b.core.observersMu.RLock()
		observers := make([]Observer, len(b.core.observers))
		copy(observers, b.core.observers)
		b.core.observersMu.RUnlock()

		for _, o := range observers {
			if c, ok := o.(io.Closer); ok {
				if err := c.Close(); err != nil {
					b.core.logger.Error().Err(err).Msg("xpubsub: observer close failed")
					closeErr = multierr.Append(closeErr, err)
				}
			}
		}
	})

	return closeErr
}

// AddObserver registers an observer (thread-safe).
func (b *Bus) AddObserver(obs Observer) { b.core.addObserver(obs) }

// RemoveObserver removes an observer. Observers of non-comparable types,
// such as ObserverFunc, cannot be removed.
func (b *Bus) RemoveObserver(obs Observer) {
	if obs == nil || !reflect.TypeOf(obs).Comparable() {
		return
	}
	c := b.core
	c.observersMu.Lock()
	defer c.observersMu.Unlock()

	for i, o := range c.observers {
		if o == obs {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			break
		}
	}
}

func (c *core) addObserver(obs Observer) {
	if obs == nil {
		return
	}
	c.observersMu.Lock()
	c.observers = append(c.observers, obs)
	c.observersMu.Unlock()
}

// notify delivers e through the observer pool when one is configured,
// otherwise synchronously.
func (c *core) notify(e BusEvent) {
	if c.closed.Load() {
		return
	}

	c.observersMu.RLock()
	if len(c.observers) == 0 {
		c.observersMu.RUnlock()
		return
	}
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.observersMu.RUnlock()

	if c.observerPool != nil {
		c.observerPool.Notify(e, observers)
		return
	}
	for _, o := range observers {
		o.OnBusEvent(e)
	}
}

// handlerContext injects the active codec, logger and clock for handlers.
func (c *core) handlerContext(ctx context.Context) context.Context {
	return InjectAll(ctx, c.codec, c.logger, c.clock)
}

// recordProcessingTime records fan-out time using an exponential moving average.
func (c *core) recordProcessingTime(ns int64) {
	const alpha = 0.2
	current := c.metrics.processingNs.Load()
	if current == 0 {
		c.metrics.processingNs.Store(ns)
		return
	}
	c.metrics.processingNs.Store(int64(float64(ns)*alpha + float64(current)*(1-alpha)))
}

// EventSet applies bus operations to a selection of event names.
type EventSet struct {
	bus   *Bus
	names []string
}

// Names returns the selected event names.
func (s EventSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s EventSet) Listen(h Handler) { s.ListenTimes(Unlimited, h) }

func (s EventSet) ListenOnce(h Handler) { s.ListenTimes(1, h) }

// ListenTimes registers h on every selected name with a budget of n runs per
// name. A negative n means unlimited.
func (s EventSet) ListenTimes(n int, h Handler) {
	for _, name := range s.names {
		s.bus.listener(name).add(h, n)
	}
}

// Unlisten removes h from every selected name. A nil h is ignored.
func (s EventSet) Unlisten(h Handler) {
	for _, name := range s.names {
		l := s.bus.listener(name)
		if h != nil {
			l.remove(h)
		}
	}
}

func (s EventSet) UnlistenAll() {
	for _, name := range s.names {
		s.bus.listener(name).removeAll()
	}
}

// Emit emits every selected name in order and stops at the first failure.
func (s EventSet) Emit(ctx context.Context, payload Payload) error {
	for _, name := range s.names {
		if err := s.bus.Emit(ctx, name, payload); err != nil {
			return err
		}
	}
	return nil
}
