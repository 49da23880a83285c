// Package notify adaptadores de ports.Notifier.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Remitos-api/internal/application/ports"
)

var (
	_ ports.Notifier = (*RedisNotifier)(nil)
	_ ports.Notifier = (*LogNotifier)(nil)
)

// Envelope mensaje publicado en el canal.
type Envelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// RedisNotifier publica cada evento como JSON en un canal pub/sub de Redis.
type RedisNotifier struct {
	rdb     redis.UniversalClient
	channel string
}

// NewRedisNotifier construye el notificador sobre un cliente ya conectado.
func NewRedisNotifier(rdb redis.UniversalClient, channel string) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel}
}

// Notify publica el evento.
func (n *RedisNotifier) Notify(ctx context.Context, event string, payload any) error {
	msg, err := json.Marshal(Envelope{Event: event, Payload: payload, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, n.channel, msg).Err()
}

// LogNotifier solo registra el evento; se usa cuando no hay Redis configurado.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

// Notify nunca falla.
func (n *LogNotifier) Notify(_ context.Context, event string, payload any) error {
	n.log.Info().Str("event", event).Interface("payload", payload).Msg("notificación")
	return nil
}
