package ports

import (
	"context"
	"time"
)

// Locker lock distribuido por clave. Release es idempotente.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// NopLocker no bloquea; basta cuando hay una sola instancia.
type NopLocker struct{}

func (NopLocker) Obtain(context.Context, string, time.Duration) (func(), error) { return func() {}, nil }
