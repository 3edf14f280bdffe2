// Package xpubsub is a hierarchical publish/subscribe bus layered over a
// native event-dispatch primitive: a tree of nodes exposing AddEventListener
// and DispatchEvent.
//
// A Bus is scoped to one Target. Emit builds a native event and dispatches it
// synchronously on that Target, so bubbling, capture and composed paths of the
// host tree still apply. Each event name gets a single native subscription
// which fans the event out to the registered handlers in registration order:
//
//	bus, _ := xpubsub.NewBusBuilder().WithTarget(doc).Build()
//
//	bus.ListenTimes("cart:add", 3, func(ctx context.Context, ev *xpubsub.Event) error {
//	    sku := ev.Lookup("sku").String()
//	    ...
//	    return nil
//	})
//	_ = bus.Emit(ctx, "cart:add", xpubsub.Payload{"sku": "A-1", "bubbles": true})
//
// Attach returns a Bus scoped to another node, giving independent subtrees
// their own event namespace. The keys "bubbles", "cancelable" and "composed"
// of a payload never reach handlers as detail; they become event flags.
package xpubsub
