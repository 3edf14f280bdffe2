// Package dom provides an in-memory, DOM-like node tree implementing
// xpubsub.Target, plus Use, which bootstraps the process-wide default bus on
// a document.
//
// Dispatch follows the DOM event flow: capture listeners from the root down
// to the target, then target listeners, then bubble listeners back up when the
// event bubbles. Shadow roots stop propagation unless the event is composed;
// listeners outside a shadow tree see the host as the event target.
//
// Example:
//
//	doc := dom.NewDocument()
//	widget := doc.AppendChild(dom.NewElement("widget"))
//
//	bus := dom.Use(doc, dom.WithLogger(logger))
//	bus.ListenOnce(dom.ReadyEvent, onReady)
//	_ = doc.ContentLoaded()
//
//	scoped := bus.Attach(widget)
//	_ = scoped.Emit(ctx, "widget:open", xpubsub.Payload{"bubbles": true})
package dom
