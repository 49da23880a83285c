// Package ledger concentra la aritmética de cantidades e importes de las líneas de
// compras, pedidos y remitos. Funciones puras sobre decimal.Decimal.
package ledger

import "github.com/shopspring/decimal"

// Line par cantidad / precio unitario de una línea.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// PendingQuantity = max(ordered - received, 0).
func PendingQuantity(ordered, received decimal.Decimal) decimal.Decimal {
	p := ordered.Sub(received)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// LineTotal = quantity * unitPrice.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// AggregateTotal suma los totales de línea más los costos accesorios (ej. transporte).
func AggregateTotal(lines []Line, ancillary ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.Quantity, l.UnitPrice))
	}
	for _, a := range ancillary {
		total = total.Add(a)
	}
	return total
}

// SumQuantities suma cantidades.
func SumQuantities(qs ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, q := range qs {
		total = total.Add(q)
	}
	return total
}

// ClampReceived acota received a [0, ordered].
func ClampReceived(received, ordered decimal.Decimal) decimal.Decimal {
	if received.IsNegative() {
		return decimal.Zero
	}
	if received.GreaterThan(ordered) {
		return ordered
	}
	return received
}
