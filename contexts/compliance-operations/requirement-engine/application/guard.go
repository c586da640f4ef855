package application

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultStoreTimeout      = 5 * time.Second
	DefaultSideEffectTimeout = 3 * time.Second
)

func boundedContext(ctx context.Context, timeout time.Duration, fallback time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = fallback
	}
	return context.WithTimeout(ctx, timeout)
}

// ReadGuard runs an idempotent store read under a bounded timeout with a
// single retry when the first attempt times out.
func ReadGuard(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	attempt := func() error {
		rctx, cancel := boundedContext(ctx, timeout, DefaultStoreTimeout)
		defer cancel()
		return op(rctx)
	}

	err := attempt()
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = attempt()
	}
	return err
}

// WriteGuard runs a store write under a bounded timeout, no retry: conflict
// handling is the store's job and non-idempotent writes must not repeat.
func WriteGuard(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	wctx, cancel := boundedContext(ctx, timeout, DefaultStoreTimeout)
	defer cancel()
	return op(wctx)
}

// SideEffectGuard bounds a best-effort collaborator call (audit, notification,
// outbox). Callers downgrade failures to warnings after the primary write.
// The parent's cancellation is deliberately not inherited: once the primary
// write commits, side effects must still run to completion.
func SideEffectGuard(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	if timeout <= 0 {
		timeout = DefaultSideEffectTimeout
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return op(sctx)
}
