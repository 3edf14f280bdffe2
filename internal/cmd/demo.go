package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/trickstertwo/xlog"
	"github.com/trickstertwo/xlog/adapter/zerolog"

	"github.com/trickstertwo/xpubsub"
	"github.com/trickstertwo/xpubsub/adapter/dom"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Boot the default bus on a document and emit events through attached buses",
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().Int("emits", 0, "number of cart:add emits (overrides demo.emits)")
	rootCmd.AddCommand(demoCmd)
}

type cartItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cfg, err := Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if n, _ := cmd.Flags().GetInt("emits"); n > 0 {
		cfg.Demo.Emits = n
	}

	logger := zerolog.Use(zerolog.Config{
		MinLevel:          cfg.minLevel(),
		Console:           cfg.Log.Console,
		ConsoleTimeFormat: time.RFC3339,
	}).With(xlog.Str("app", "xpubsub-demo"))

	doc := dom.NewDocument()
	shop := doc.AppendChild(dom.NewElement("shop"))
	cart := shop.AppendChild(dom.NewElement("cart"))
	badge := cart.AttachShadow().AppendChild(dom.NewElement("badge"))

	opts := []dom.Option{
		dom.WithLogger(logger),
		dom.WithMiddleware(xpubsub.RecoveryMiddleware()),
	}
	if cfg.Observer.Workers > 0 {
		opts = append(opts, dom.WithObserverPool(cfg.Observer.Workers, cfg.Observer.BufferSize))
	}
	bus := dom.Use(doc, opts...)
	defer func() { _ = bus.Close(context.Background()) }()

	bus.ListenOnce(dom.ReadyEvent, func(ctx context.Context, ev *xpubsub.Event) error {
		logger.Info().Str("event", ev.Type).Msg("document ready")
		return nil
	})

	// The cart bus only sees events dispatched on the cart node; the document
	// bus sees them too when they bubble.
	cartBus := bus.Attach(cart)
	total := 0
	onAdd := func(ctx context.Context, ev *xpubsub.Event) error {
		item, err := xpubsub.Decode[cartItem](ctx, ev)
		if err != nil {
			return err
		}
		total += item.Qty
		logger.Info().Str("sku", item.SKU).Str("qty", strconv.Itoa(item.Qty)).Str("total", strconv.Itoa(total)).Msg("cart updated")
		return nil
	}
	if cfg.Demo.Once {
		cartBus.ListenOnce("cart:add", onAdd)
	} else {
		cartBus.Listen("cart:add", onAdd)
	}
	bus.Listen("cart:add", func(ctx context.Context, ev *xpubsub.Event) error {
		logger.Debug().Str("phase", ev.Phase.String()).Str("sku", ev.Lookup("sku").String()).Msg("bubbled to document")
		return nil
	})

	// The badge lives in a shadow tree; only composed events reach the cart.
	badgeBus := bus.Attach(badge)
	cartBus.Events("badge:click", "badge:hover").Listen(func(ctx context.Context, ev *xpubsub.Event) error {
		logger.Info().Str("event", ev.Type).Msg("badge interaction reached cart")
		return nil
	})

	if err := doc.ContentLoaded(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for i := 0; i < cfg.Demo.Emits; i++ {
		payload := xpubsub.Payload{"sku": fmt.Sprintf("SKU-%03d", i+1), "qty": i + 1, "bubbles": true}
		if err := cartBus.Emit(ctx, "cart:add", payload); err != nil {
			return err
		}
	}
	if err := badgeBus.Emit(ctx, "badge:click", xpubsub.Payload{"bubbles": true}); err != nil {
		return err
	}
	if err := badgeBus.Emit(ctx, "badge:hover", xpubsub.Payload{"bubbles": true, "composed": true}); err != nil {
		return err
	}

	m := bus.GetMetrics()
	logger.Info().
		Str("emitted", strconv.FormatUint(m.Emitted, 10)).
		Str("delivered", strconv.FormatUint(m.Delivered, 10)).
		Str("listeners", strconv.FormatUint(m.Listeners, 10)).
		Str("attached", strconv.FormatUint(m.Attached, 10)).
		Msg("demo done")
	return nil
}
