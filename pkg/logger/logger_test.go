package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Remitos-api/pkg/logger"
)

func TestNew_JSONConServicio(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", Service: "remitos-api", Output: &buf})
	l.Info().Str("order_id", "o-1").Msg("pedido creado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "remitos-api", line["service"])
	assert.Equal(t, "o-1", line["order_id"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_NivelFiltraDebug(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "WARN", Output: &buf})
	l.Info().Msg("no aparece")
	assert.Empty(t, buf.String())
	l.Warn().Msg("aparece")
	assert.Contains(t, buf.String(), "aparece")
}
