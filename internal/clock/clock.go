// Package clock abstracts wall-clock access so settlement batches can
// stamp one shared paid_at and tests can freeze time.
package clock

import (
	"context"
	"time"
)

type Clock interface {
	Now(ctx context.Context) time.Time
}

type frozenKey struct{}

// WithFrozen pins the clock for the given context. Tests use this to
// make accrual and settlement timestamps deterministic.
func WithFrozen(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, frozenKey{}, t)
}

func frozenFrom(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(frozenKey{}).(time.Time)
	return t, ok
}
