// Package lock implementa ports.Locker sobre Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Remitos-api/internal/application/ports"
)

var _ ports.Locker = (*RedisLocker)(nil)

// ErrNotObtained la clave ya está tomada por otra instancia.
var ErrNotObtained = errors.New("lock: clave ocupada")

// RedisLocker lock distribuido con reintentos lineales hasta agotar el contexto o el intento.
type RedisLocker struct {
	client  *redislock.Client
	backoff time.Duration
	retries int
}

// NewRedisLocker construye el locker sobre un cliente ya conectado.
func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), backoff: 100 * time.Millisecond, retries: 30}
}

// Obtain toma la clave por ttl. El release devuelto libera el lock una sola vez.
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lk, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, err
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		// contexto propio: el del request puede estar cancelado
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = lk.Release(ctx)
	}, nil
}
