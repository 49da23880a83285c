package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Remitos-api/internal/domain/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPendingQuantity(t *testing.T) {
	cases := []struct {
		name     string
		ordered  string
		received string
		want     string
	}{
		{"parcial", "10", "3", "7"},
		{"completo", "5", "5", "0"},
		{"sin recibir", "8", "0", "8"},
		{"recibido de más nunca es negativo", "5", "9", "0"},
		{"decimales", "2.5", "1.25", "1.25"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ledger.PendingQuantity(d(tc.ordered), d(tc.received))
			assert.True(t, d(tc.want).Equal(got), "esperado %s, obtenido %s", tc.want, got)
			assert.False(t, got.IsNegative())
		})
	}
}

func TestLineTotal(t *testing.T) {
	assert.True(t, d("100.00").Equal(ledger.LineTotal(d("2"), d("50.00"))))
	assert.True(t, d("0.3").Equal(ledger.LineTotal(d("3"), d("0.1"))), "sin deriva de coma flotante")
}

// Pedido con dos líneas (2×50.00 + 1×150.00) más transporte 20.00 → 270.00.
func TestAggregateTotal_ConTransporte(t *testing.T) {
	lines := []ledger.Line{
		{Quantity: d("2"), UnitPrice: d("50.00")},
		{Quantity: d("1"), UnitPrice: d("150.00")},
	}
	assert.True(t, d("250.00").Equal(ledger.AggregateTotal(lines)))
	got := ledger.AggregateTotal(lines, d("20.00"))
	assert.Equal(t, "270.00", got.StringFixed(2))
	assert.True(t, d("270").Equal(got))
}

func TestAggregateTotal_SinLineas(t *testing.T) {
	assert.True(t, ledger.AggregateTotal(nil).IsZero())
}

func TestClampReceived(t *testing.T) {
	assert.True(t, d("10").Equal(ledger.ClampReceived(d("12"), d("10"))))
	assert.True(t, decimal.Zero.Equal(ledger.ClampReceived(d("-1"), d("10"))))
	assert.True(t, d("4").Equal(ledger.ClampReceived(d("4"), d("10"))))
}

func TestSumQuantities(t *testing.T) {
	assert.True(t, d("100").Equal(ledger.SumQuantities(d("40"), d("60"))))
	assert.True(t, ledger.SumQuantities().IsZero())
}
