package xpubsub

import (
	"context"
	"reflect"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// ctxKey is the base for all context keys in xpubsub (prevents collisions).
type ctxKey string

const (
	codecCtxKey  ctxKey = "xpubsub:codec"
	loggerCtxKey ctxKey = "xpubsub:logger"
	clockCtxKey  ctxKey = "xpubsub:clock"
)

func withValue[T any](ctx context.Context, key ctxKey, v T) context.Context {
	if isNil(v) {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func fromContext[T any](ctx context.Context, key ctxKey) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	if !ok || isNil(v) {
		return zero, false
	}
	return v, true
}

// isNil reports whether v is nil or a typed nil. It never compares values,
// so dependencies of non-comparable types are accepted.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// CodecFromContext returns the Codec of the bus that delivered the event.
func CodecFromContext(ctx context.Context) (Codec, bool) {
	return fromContext[Codec](ctx, codecCtxKey)
}

// LoggerFromContext returns the bus logger injected for handlers.
func LoggerFromContext(ctx context.Context) (*xlog.Logger, bool) {
	return fromContext[*xlog.Logger](ctx, loggerCtxKey)
}

func ClockFromContext(ctx context.Context) (xclock.Clock, bool) {
	return fromContext[xclock.Clock](ctx, clockCtxKey)
}

// InjectAll attaches codec, logger and clock to ctx. Nil values are skipped.
func InjectAll(ctx context.Context, codec Codec, logger *xlog.Logger, clock xclock.Clock) context.Context {
	ctx = withValue(ctx, codecCtxKey, codec)
	ctx = withValue(ctx, loggerCtxKey, logger)
	ctx = withValue(ctx, clockCtxKey, clock)
	return ctx
}
