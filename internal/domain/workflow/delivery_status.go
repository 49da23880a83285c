package workflow

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/ledger"
)

// LineProgress cantidad pedida y recibida acumulada de una línea de compra.
type LineProgress struct {
	Ordered  decimal.Decimal
	Received decimal.Decimal
}

// DeliveryNoteStatus deriva el estado de un remito de proveedor desde el avance de la compra:
// complete si todas las líneas están recibidas, partial si hay avance parcial, pending si no hay.
func DeliveryNoteStatus(lines []LineProgress) string {
	if len(lines) == 0 {
		return entity.DeliveryNoteStatusPending
	}
	all, some := true, false
	for _, l := range lines {
		if l.Received.IsPositive() {
			some = true
		}
		if !ledger.PendingQuantity(l.Ordered, l.Received).IsZero() {
			all = false
		}
	}
	switch {
	case all:
		return entity.DeliveryNoteStatusComplete
	case some:
		return entity.DeliveryNoteStatusPartial
	default:
		return entity.DeliveryNoteStatusPending
	}
}
