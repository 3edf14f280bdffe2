package xpubsub

import (
	"sync"
	"unsafe"
)

// Unlimited is the budget of handlers registered through Listen.
const Unlimited = -1

// Listener fans native events for one (Target, event name) pair out to the
// registered handlers. It owns a single native subscription, installed on the
// first registration and never removed.
type Listener struct {
	target    Target
	eventName string
	core      *core

	mu        sync.Mutex
	records   []*record
	installed bool
}

// record is one registered handler and its invocation budget.
type record struct {
	key      uintptr
	handler  Handler
	max      int
	runs     int
	inflight int // runs reserved by passes that have not returned yet
}

// exhausted reports whether the record used up its budget. A budget of 0
// still lets the handler run once: cleanup only ever follows a run.
func (r *record) exhausted() bool {
	return r.max >= 0 && r.runs > 0 && r.runs >= r.max
}

// reserve claims one run for a pass. It fails when completed and in-flight
// runs already cover the budget, so a reentrant pass cannot overrun it.
func (r *record) reserve() bool {
	if r.max >= 0 {
		limit := r.max
		if limit == 0 {
			limit = 1
		}
		if r.runs+r.inflight >= limit {
			return false
		}
	}
	r.inflight++
	return true
}

func newListener(target Target, eventName string, c *core) *Listener {
	return &Listener{target: target, eventName: eventName, core: c}
}

// EventName returns the event name this listener fans out.
func (l *Listener) EventName() string { return l.eventName }

// Len returns the number of registered handlers.
func (l *Listener) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Installed reports whether the native subscription exists.
func (l *Listener) Installed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.installed
}

// add registers h with budget max (negative means unlimited).
func (l *Listener) add(h Handler, max int) {
	if h == nil {
		return
	}
	rec := &record{
		key:     handlerKey(h),
		handler: Chain(h, l.core.middlewares...),
		max:     max,
	}

	l.mu.Lock()
	l.records = append(l.records, rec)
	install := !l.installed
	l.installed = true
	l.mu.Unlock()

	if install {
		l.target.AddEventListener(l.eventName, EventListenerFunc(l.dispatch))
		l.core.metrics.listenerCount.Add(1)
		l.core.notify(BusEvent{Type: EventListenerInstalled, EventName: l.eventName})
	}
}

// remove drops every record registered with h.
func (l *Listener) remove(h Handler) {
	if h == nil {
		return
	}
	key := handlerKey(h)

	l.mu.Lock()
	defer l.mu.Unlock()
	kept := make([]*record, 0, len(l.records))
	for _, rec := range l.records {
		if rec.key != key {
			kept = append(kept, rec)
		}
	}
	l.records = kept
}

// removeAll drops every record. The native subscription stays installed.
func (l *Listener) removeAll() {
	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()
}

// dispatch is the native subscription. Every record present when the pass
// starts runs once, in registration order; registrations made by handlers
// take effect from the next pass. A run is reserved before the handler is
// called, so passes started from inside a handler see the budget as spent.
// A failing handler aborts the pass before cleanup.
func (l *Listener) dispatch(ev *Event) error {
	l.mu.Lock()
	l.sweepLocked()
	snapshot := make([]*record, 0, len(l.records))
	for _, rec := range l.records {
		if rec.reserve() {
			snapshot = append(snapshot, rec)
		}
	}
	l.mu.Unlock()

	if len(snapshot) == 0 {
		return nil
	}

	// Reservations of records that did not complete, because the pass was
	// aborted by an error or a panic, are released on the way out.
	pending := snapshot
	defer func() {
		if len(pending) == 0 {
			return
		}
		l.mu.Lock()
		for _, rec := range pending {
			rec.inflight--
		}
		l.mu.Unlock()
	}()

	ctx := l.core.handlerContext(ev.Context())
	start := l.core.clock.Now()
	for i, rec := range snapshot {
		err := rec.handler(ctx, ev)

		l.mu.Lock()
		rec.inflight--
		pending = snapshot[i+1:]
		if err == nil {
			rec.runs++
		}
		l.mu.Unlock()

		if err != nil {
			l.core.metrics.errorCount.Add(1)
			l.core.notify(BusEvent{
				Type:      EventHandlerError,
				EventName: l.eventName,
				EventID:   ev.ID,
				Err:       err,
			})
			return &HandlerError{EventType: l.eventName, Err: err}
		}
		l.core.metrics.deliverCount.Add(1)
	}
	l.core.recordProcessingTime(l.core.clock.Since(start).Nanoseconds())

	l.mu.Lock()
	l.sweepLocked()
	l.mu.Unlock()
	return nil
}

// sweepLocked removes exhausted records. Callers hold l.mu.
func (l *Listener) sweepLocked() {
	n := 0
	for _, rec := range l.records {
		if !rec.exhausted() {
			l.records[n] = rec
			n++
		}
	}
	for i := n; i < len(l.records); i++ {
		l.records[i] = nil
	}
	l.records = l.records[:n]
}

// handlerKey returns the identity of a func value: the address of its closure
// object. Copies of one func value share a key. Method values and closures
// that capture variables get a new key each time they are evaluated; a
// literal capturing nothing always has the same key.
func handlerKey(h Handler) uintptr {
	return *(*uintptr)(unsafe.Pointer(&h))
}
