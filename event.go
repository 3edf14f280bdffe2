package xpubsub

import (
	"context"
	"time"

	"github.com/tidwall/gjson"
)

// EventPhase is the dispatch phase a native event is currently in.
type EventPhase int

const (
	PhaseNone EventPhase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

func (p EventPhase) String() string {
	switch p {
	case PhaseCapturing:
		return "capturing"
	case PhaseAtTarget:
		return "at_target"
	case PhaseBubbling:
		return "bubbling"
	default:
		return "none"
	}
}

// EventInit carries the delivery-control flags of a native event.
type EventInit struct {
	// Bubbles lets the event propagate to ancestors after the target.
	Bubbles bool
	// Cancelable lets listeners call PreventDefault.
	Cancelable bool
	// Composed lets the event leave a shadow root towards its host.
	Composed bool
}

// Detail is the arbitrary payload of a custom event.
type Detail map[string]any

// Event is the native event object exchanged with a Target.
type Event struct {
	ID        string
	Type      string
	Detail    Detail
	TimeStamp time.Time

	Bubbles    bool
	Cancelable bool
	Composed   bool

	// Target, CurrentTarget and Phase are maintained by the Target during dispatch.
	Target        Target
	CurrentTarget Target
	Phase         EventPhase

	ctx              context.Context
	custom           bool
	defaultPrevented bool
	stopped          bool
	stoppedImmediate bool
}

// NewEvent constructs a plain event without detail.
func NewEvent(eventType string, init EventInit) *Event {
	return &Event{
		Type:       eventType,
		Bubbles:    init.Bubbles,
		Cancelable: init.Cancelable,
		Composed:   init.Composed,
	}
}

// NewCustomEvent constructs a detail-carrying event. A nil detail is stored
// as an empty Detail so callers can always tell custom events apart.
func NewCustomEvent(eventType string, detail Detail, init EventInit) *Event {
	if detail == nil {
		detail = Detail{}
	}
	ev := NewEvent(eventType, init)
	ev.Detail = detail
	ev.custom = true
	return ev
}

// IsCustom reports whether the event was built with a detail payload.
func (e *Event) IsCustom() bool { return e.custom }

// Context returns the context the event was emitted with.
func (e *Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// WithContext attaches ctx to the event and returns it.
func (e *Event) WithContext(ctx context.Context) *Event {
	e.ctx = ctx
	return e
}

// PreventDefault marks the event cancelled. It is ignored unless the event is cancelable.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops dispatch after the listeners of the current node.
func (e *Event) StopPropagation() { e.stopped = true }

func (e *Event) PropagationStopped() bool { return e.stopped }

// StopImmediatePropagation stops dispatch before the next listener.
func (e *Event) StopImmediatePropagation() {
	e.stopped = true
	e.stoppedImmediate = true
}

func (e *Event) ImmediatePropagationStopped() bool { return e.stoppedImmediate }

// Lookup resolves a gjson path (e.g. "order.items.0.sku") against the detail.
func (e *Event) Lookup(path string) gjson.Result {
	if len(e.Detail) == 0 {
		return gjson.Result{}
	}
	data, err := JSONCodec{}.Marshal(e.Detail)
	if err != nil {
		return gjson.Result{}
	}
	return gjson.GetBytes(data, path)
}
