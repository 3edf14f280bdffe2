package xpubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID    string `json:"id"`
	Total int    `json:"total"`
	Items []struct {
		SKU string `json:"sku"`
	} `json:"items"`
}

func TestDecode_UsesInjectedCodec(t *testing.T) {
	ev := NewCustomEvent("order:placed", Detail{
		"id":    "o-1",
		"total": 42,
		"items": []map[string]any{{"sku": "A"}, {"sku": "B"}},
	}, EventInit{})

	ctx := InjectAll(context.Background(), JSONCodec{}, nil, nil)
	got, err := Decode[order](ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, "o-1", got.ID)
	assert.Equal(t, 42, got.Total)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "B", got.Items[1].SKU)
}

func TestDecode_PlainEventIsZero(t *testing.T) {
	got, err := Decode[order](context.Background(), NewEvent("order:placed", EventInit{}))
	require.NoError(t, err)
	assert.Equal(t, order{}, got)
}

func TestDecode_TypeMismatch(t *testing.T) {
	ev := NewCustomEvent("order:placed", Detail{"total": "lots"}, EventInit{})
	_, err := Decode[order](context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order:placed")
}

func TestEvent_Lookup(t *testing.T) {
	ev := NewCustomEvent("order:placed", Detail{
		"order": map[string]any{"items": []map[string]any{{"sku": "A-1"}}},
	}, EventInit{})

	assert.Equal(t, "A-1", ev.Lookup("order.items.0.sku").String())
	assert.False(t, ev.Lookup("order.missing").Exists())
	assert.False(t, NewEvent("plain", EventInit{}).Lookup("x").Exists())
}

type upperCodec struct{ JSONCodec }

func (upperCodec) Name() string { return "upper" }

func TestCodecRegistry(t *testing.T) {
	require.Error(t, RegisterCodec("", func() Codec { return JSONCodec{} }))
	require.Error(t, RegisterCodec("upper", nil))
	require.NoError(t, RegisterCodec("upper", func() Codec { return upperCodec{} }))

	c, err := NewCodec("upper")
	require.NoError(t, err)
	assert.Equal(t, "upper", c.Name())

	_, err = NewCodec("nope")
	assert.Error(t, err)

	bus, err := NewBusBuilder().WithTarget(newStubTarget()).WithCodec("upper").Build()
	require.NoError(t, err)
	assert.Equal(t, "upper", bus.Codec().Name())
}
