package xpubsub

import (
	"context"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// BusBuilder constructs root Bus instances (Builder pattern).
type BusBuilder struct {
	target Target

	codecName string
	codecInst Codec

	middlewares []Middleware
	observers   []Observer
	logger      *xlog.Logger
	clock       xclock.Clock

	poolWorkers int
	poolBuffer  int
}

// NewBusBuilder returns a new builder with sensible defaults.
func NewBusBuilder() *BusBuilder {
	return &BusBuilder{codecName: "json"}
}

// WithTarget sets the node the root Bus is scoped to (typically the document).
func (bb *BusBuilder) WithTarget(t Target) *BusBuilder {
	bb.target = t
	return bb
}

func (bb *BusBuilder) WithCodec(name string) *BusBuilder {
	bb.codecName = name
	return bb
}

// WithCodecInstance accepts a ready Codec instance.
func (bb *BusBuilder) WithCodecInstance(c Codec) *BusBuilder {
	bb.codecInst = c
	return bb
}

// WithMiddleware wraps every handler registered on the bus tree.
func (bb *BusBuilder) WithMiddleware(mw ...Middleware) *BusBuilder {
	bb.middlewares = append(bb.middlewares, mw...)
	return bb
}

func (bb *BusBuilder) WithObserver(obs ...Observer) *BusBuilder {
	for _, o := range obs {
		if o != nil {
			bb.observers = append(bb.observers, o)
		}
	}
	return bb
}

func (bb *BusBuilder) WithLogger(l *xlog.Logger) *BusBuilder {
	bb.logger = l
	return bb
}

func (bb *BusBuilder) WithClock(c xclock.Clock) *BusBuilder {
	bb.clock = c
	return bb
}

// WithObserverPool delivers observer notifications asynchronously.
// Without it observers run synchronously inside Emit.
func (bb *BusBuilder) WithObserverPool(workers, bufferSize int) *BusBuilder {
	if workers < 1 {
		workers = 4
	}
	bb.poolWorkers = workers
	bb.poolBuffer = bufferSize
	return bb
}

func (bb *BusBuilder) Build() (*Bus, error) {
	if bb.target == nil {
		return nil, ErrNoTargetConfigured
	}

	cd := bb.codecInst
	if cd == nil {
		var err error
		cd, err = NewCodec(bb.codecName)
		if err != nil {
			return nil, err
		}
	}

	clk := bb.clock
	if clk == nil {
		clk = xclock.Default()
	}
	lg := bb.logger
	if lg == nil {
		lg = xlog.Default()
	}

	c := &core{
		codec:       cd,
		clock:       clk,
		logger:      lg,
		middlewares: bb.middlewares,
		metrics:     &busMetrics{},
	}
	if bb.poolWorkers > 0 {
		c.observerPool = NewObserverPool(context.Background(), bb.poolWorkers, bb.poolBuffer)
	}

	// Attach logging observer first unless one was supplied explicitly.
	hasLoggingObserver := false
	for _, o := range bb.observers {
		if _, ok := o.(LoggingObserver); ok {
			hasLoggingObserver = true
			break
		}
	}
	if !hasLoggingObserver {
		c.addObserver(LoggingObserver{Logger: lg})
	}
	for _, o := range bb.observers {
		c.addObserver(o)
	}

	return newBus(bb.target, c), nil
}

// New constructs a Bus via Builder and returns a close func for convenience.
func New(target Target, init func(b *BusBuilder)) (*Bus, func() error, error) {
	b := NewBusBuilder().WithTarget(target)
	if init != nil {
		init(b)
	}
	bus, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() error { return bus.Close(context.Background()) }
	return bus, closeFn, nil
}
