package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Remitos-api/internal/application/ports"
	"github.com/jhoicas/Remitos-api/internal/infrastructure/notify"
)

func TestLogNotifier_RegistraEvento(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewLogNotifier(zerolog.New(&buf))

	err := n.Notify(context.Background(), ports.EventRemitoCreated, map[string]string{"number": "REM26000001"})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, ports.EventRemitoCreated, line["event"])
	assert.Equal(t, "notify", line["component"])
	payload, ok := line["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "REM26000001", payload["number"])
}

func TestEnvelope_JSON(t *testing.T) {
	at := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	b, err := json.Marshal(notify.Envelope{Event: ports.EventOrderCreated, Payload: map[string]int{"items": 2}, At: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"order.created","payload":{"items":2},"at":"2026-05-02T12:00:00Z"}`, string(b))
}

func TestRedisNotifier_ServidorCaido(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer rdb.Close()
	n := notify.NewRedisNotifier(rdb, "remitos.events")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, n.Notify(ctx, ports.EventOrderCreated, nil))
}
