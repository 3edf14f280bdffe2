package xpubsub

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/trickstertwo/xlog"
)

// RetryConfig controls retry behavior for handler middleware.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first execution.
	MaxAttempts int
	// Backoff computes the base wait before the next attempt. Nil retries immediately.
	Backoff func(attempt int) time.Duration
	// RetryIf, when provided, returns true if the error should be retried.
	// If nil, all errors are retried (bounded by MaxAttempts).
	RetryIf func(err error) bool
	// Jitter adds up to [0, Jitter] random delay to the base backoff.
	Jitter time.Duration
}

// RetryMiddleware re-runs a failing handler in place. The wait happens inside
// the fan-out pass, so the emitting caller blocks for it.
func RetryMiddleware(cfg RetryConfig) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event) error {
			attempts := cfg.MaxAttempts
			if attempts < 1 {
				attempts = 1
			}
			shouldRetry := cfg.RetryIf
			if shouldRetry == nil {
				shouldRetry = func(error) bool { return true }
			}

			var lastErr error
			for i := 1; i <= attempts; i++ {
				lastErr = next(ctx, ev)
				if lastErr == nil {
					return nil
				}
				if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return lastErr
				}
				if i == attempts || !shouldRetry(lastErr) {
					return lastErr
				}
				if cfg.Backoff == nil {
					continue
				}
				wait := cfg.Backoff(i)
				if cfg.Jitter > 0 {
					wait += time.Duration(rand.Int63n(int64(cfg.Jitter)))
				}
				select {
				case <-ctx.Done():
					return lastErr
				case <-time.After(wait):
				}
			}
			return lastErr
		}
	}
}

// RecoveryMiddleware converts handler panics into errors wrapping ErrHandlerPanic.
func RecoveryMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
				}
			}()
			return next(ctx, ev)
		}
	}
}

// IsolateMiddleware logs handler failures and swallows them, so one failing
// handler no longer aborts the rest of the fan-out pass. Combine with
// RecoveryMiddleware to isolate panics as well. A nil logger falls back to the
// logger injected into the handler context.
func IsolateMiddleware(logger *xlog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event) error {
			err := next(ctx, ev)
			if err == nil {
				return nil
			}
			lg := logger
			if lg == nil {
				lg, _ = LoggerFromContext(ctx)
			}
			if lg != nil {
				lg.Warn().
					Str("event_name", ev.Type).
					Str("event_id", ev.ID).
					Err(err).
					Msg("xpubsub: handler failed (isolated)")
			}
			return nil
		}
	}
}

// Chain composes middlewares around a handler; the first middleware is outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	if len(mws) == 0 {
		return h
	}
	wrapped := h
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		wrapped = mws[i](wrapped)
	}
	return wrapped
}
