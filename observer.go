package xpubsub

import (
	"time"

	"github.com/trickstertwo/xlog"
)

// BusEventType enumerates internal lifecycle events for the Observer pattern.
type BusEventType string

const (
	EventEmitStart         BusEventType = "emit_start"
	EventEmitDone          BusEventType = "emit_done"
	EventListenerInstalled BusEventType = "listener_installed"
	EventHandlerError      BusEventType = "handler_error"
	EventAttach            BusEventType = "attach"
)

// BusEvent carries telemetry for observers.
type BusEvent struct {
	Type      BusEventType
	EventName string
	EventID   string
	Duration  time.Duration
	Err       error

	// Internal: attached for async dispatch
	observers []Observer
}

// ObserverFunc is an Adapter that lets a plain function satisfy Observer.
type ObserverFunc func(e BusEvent)

func (f ObserverFunc) OnBusEvent(e BusEvent) { f(e) }

// LoggingObserver is an Adapter that emits BusEvents via xlog.
type LoggingObserver struct {
	Logger *xlog.Logger
}

func (o LoggingObserver) OnBusEvent(e BusEvent) {
	if o.Logger == nil {
		return
	}
	ev := o.Logger.With(
		xlog.Str("type", string(e.Type)),
		xlog.Str("event_name", e.EventName),
		xlog.Str("event_id", e.EventID),
	)
	switch e.Type {
	case EventHandlerError:
		ev.Warn().Err(e.Err).Msg("xpubsub event")
	case EventEmitDone:
		ev = ev.With(xlog.Dur("duration", e.Duration))
		if e.Err != nil {
			ev.Warn().Err(e.Err).Msg("xpubsub event")
			return
		}
		ev.Debug().Msg("xpubsub event")
	default:
		ev.Debug().Msg("xpubsub event")
	}
}
