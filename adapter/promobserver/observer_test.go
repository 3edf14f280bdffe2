package promobserver

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickstertwo/xpubsub"
	"github.com/trickstertwo/xpubsub/adapter/dom"
)

func TestObserver_CountsBusLifecycle(t *testing.T) {
	obs := New()
	reg := prometheus.NewRegistry()
	require.NoError(t, obs.Register(reg))

	doc := dom.NewDocument()
	item := doc.AppendChild(dom.NewElement("item"))
	bus, err := xpubsub.NewBusBuilder().WithTarget(doc).WithObserver(obs).Build()
	require.NoError(t, err)

	bus.Listen("ok", func(context.Context, *xpubsub.Event) error { return nil })
	bus.Listen("fail", func(context.Context, *xpubsub.Event) error { return errors.New("nope") })
	bus.Attach(item)

	require.NoError(t, bus.Emit(context.Background(), "ok", nil))
	require.NoError(t, bus.Emit(context.Background(), "ok", nil))
	require.Error(t, bus.Emit(context.Background(), "fail", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.emits.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.emits.WithLabelValues("fail")))
	assert.Equal(t, 0.0, testutil.ToFloat64(obs.emitErrors.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.emitErrors.WithLabelValues("fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.handlerErrs.WithLabelValues("fail")))
	assert.Equal(t, 2.0, testutil.ToFloat64(obs.listeners))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.attached))
	assert.Equal(t, 2, testutil.CollectAndCount(obs.emitSeconds))
}

func TestObserver_RegisterTwiceFails(t *testing.T) {
	obs := New()
	reg := prometheus.NewRegistry()
	require.NoError(t, obs.Register(reg))
	assert.Error(t, obs.Register(reg))
	assert.Len(t, obs.Collectors(), 6)
}
