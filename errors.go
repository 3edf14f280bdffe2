package xpubsub

import (
	"errors"
	"fmt"
)

var (
	ErrDefaultBusNotInitialized    = errors.New("xpubsub default bus not initialized")
	ErrNoTargetConfigured          = errors.New("xpubsub: no target configured")
	ErrBusClosed                   = errors.New("xpubsub: bus is closed")
	ErrInvalidEventName            = errors.New("xpubsub: event name must not be empty")
	ErrHandlerPanic                = errors.New("xpubsub: handler panic")
	ErrObserverPoolShutdownTimeout = errors.New("xpubsub: observer pool shutdown timeout")
)

// HandlerError reports a handler that failed during a fan-out pass.
// The rest of that pass was skipped.
type HandlerError struct {
	EventType string
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("xpubsub: handler for %q failed: %v", e.EventType, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
