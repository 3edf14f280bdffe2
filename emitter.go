package xpubsub

import (
	"context"
	"math"
	"reflect"

	"github.com/google/uuid"
	"github.com/trickstertwo/xclock"
)

// Reserved payload keys that control delivery instead of travelling as detail.
const (
	KeyBubbles    = "bubbles"
	KeyCancelable = "cancelable"
	KeyComposed   = "composed"
)

// Payload is the emit argument: arbitrary named data plus the reserved
// delivery-control keys.
type Payload map[string]any

// Split separates the delivery-control flags from the detail. The receiver is
// not modified.
func (p Payload) Split() (EventInit, Detail) {
	init := EventInit{
		Bubbles:    truthy(p[KeyBubbles]),
		Cancelable: truthy(p[KeyCancelable]),
		Composed:   truthy(p[KeyComposed]),
	}
	detail := make(Detail, len(p))
	for k, v := range p {
		switch k {
		case KeyBubbles, KeyCancelable, KeyComposed:
			continue
		}
		detail[k] = v
	}
	return init, detail
}

// truthy converts a flag value the way a loosely typed host would: nil,
// false, "", numeric zeros and NaN are false; everything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return !rv.IsZero()
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// Emitter builds and dispatches native events through one Target.
type Emitter struct {
	target Target
	clock  xclock.Clock
}

// NewEmitter returns an Emitter for target. A nil clock falls back to xclock.Default().
func NewEmitter(target Target, clock xclock.Clock) *Emitter {
	if clock == nil {
		clock = xclock.Default()
	}
	return &Emitter{target: target, clock: clock}
}

// Send dispatches eventName on the target. A nil payload produces a plain
// event; any other payload, even an empty one, produces a custom event.
func (em *Emitter) Send(ctx context.Context, eventName string, payload Payload) (bool, error) {
	var ev *Event
	if payload == nil {
		ev = NewEvent(eventName, EventInit{})
	} else {
		init, detail := payload.Split()
		ev = NewCustomEvent(eventName, detail, init)
	}
	ev.ID = uuid.NewString()
	ev.TimeStamp = em.clock.Now()
	ev.WithContext(ctx)
	return em.target.DispatchEvent(ev)
}
