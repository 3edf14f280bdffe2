// Package fxbus wires the root xpubsub.Bus into a go.uber.org/fx application.
//
// The application provides the root xpubsub.Target (usually the document).
// Observers can be contributed to the "xpubsub_observers" value group with
// AsObserver. The bus becomes the process-wide default on start and is
// closed on stop.
package fxbus

import (
	"context"

	"github.com/trickstertwo/xlog"
	"go.uber.org/fx"

	"github.com/trickstertwo/xpubsub"
)

// ObserverGroup is the fx value group collecting bus observers.
const ObserverGroup = "xpubsub_observers"

// Params are the dependencies of NewBus.
type Params struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Target      xpubsub.Target
	Logger      *xlog.Logger         `optional:"true"`
	Middlewares []xpubsub.Middleware `optional:"true"`
	Observers   []xpubsub.Observer   `group:"xpubsub_observers"`
}

// Module is the fx module providing *xpubsub.Bus.
var Module = fx.Module("xpubsub",
	fx.Provide(NewBus),
)

// NewBus builds the root Bus and ties it to the application lifecycle.
func NewBus(p Params) (*xpubsub.Bus, error) {
	bb := xpubsub.NewBusBuilder().
		WithTarget(p.Target).
		WithMiddleware(p.Middlewares...).
		WithObserver(p.Observers...)
	if p.Logger != nil {
		bb.WithLogger(p.Logger)
	}

	bus, err := bb.Build()
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			xpubsub.SetDefault(bus)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return bus.Close(ctx)
		},
	})
	return bus, nil
}

// AsObserver annotates a constructor so its result joins the observer group.
func AsObserver(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(xpubsub.Observer)),
		fx.ResultTags(`group:"xpubsub_observers"`),
	)
}
