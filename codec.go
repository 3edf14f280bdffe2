package xpubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Codec is the Strategy used to convert event detail into typed values.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// JSONCodec is the default JSON implementation.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (JSONCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }
func (JSONCodec) Name() string                    { return "json" }

// CodecFactory constructs codecs via Factory pattern.
type CodecFactory func() Codec

var (
	codecRegistryMu sync.RWMutex
	codecRegistry   = map[string]CodecFactory{
		"json": func() Codec { return JSONCodec{} },
	}
)

// RegisterCodec registers a codec factory by name.
func RegisterCodec(name string, factory CodecFactory) error {
	if name == "" {
		return errors.New("codec name must not be empty")
	}
	if factory == nil {
		return errors.New("codec factory must not be nil")
	}
	codecRegistryMu.Lock()
	codecRegistry[name] = factory
	codecRegistryMu.Unlock()
	return nil
}

// NewCodec constructs a codec by name or returns an error.
func NewCodec(name string) (Codec, error) {
	codecRegistryMu.RLock()
	f, ok := codecRegistry[name]
	codecRegistryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("codec %q not registered", name)
	}
	return f(), nil
}

// DecodeCodec converts the detail of ev into T by round-tripping it through c.
// Plain events decode to the zero value.
func DecodeCodec[T any](c Codec, ev *Event) (T, error) {
	var v T
	if ev == nil || ev.Detail == nil {
		return v, nil
	}
	data, err := c.Marshal(ev.Detail)
	if err != nil {
		return v, fmt.Errorf("xpubsub: encode detail of %q: %w", ev.Type, err)
	}
	if err := c.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("xpubsub: decode detail of %q: %w", ev.Type, err)
	}
	return v, nil
}

// Decode converts the detail of ev into T using the Codec found in ctx.
// Falls back to the default "json" codec if none was injected.
func Decode[T any](ctx context.Context, ev *Event) (T, error) {
	if c, ok := CodecFromContext(ctx); ok {
		return DecodeCodec[T](c, ev)
	}
	return DecodeCodec[T](JSONCodec{}, ev)
}
