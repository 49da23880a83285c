package workflow

import (
	"fmt"
	"time"

	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

// Prefijos de numeración.
const (
	PrefixPurchase     = "COMP"
	PrefixSalesOrder   = "PED"
	PrefixDeliveryNote = "RPR"
)

const sequenceWidth = 6

// FormatNumber arma prefijo + año (2 dígitos) + secuencia con ceros a la izquierda.
// Ej: FormatNumber("COMP", 2026, 15) = "COMP26000015".
func FormatNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s%02d%0*d", prefix, year%100, sequenceWidth, seq)
}

// RemitoPrefix prefijo de tres letras según el tipo de remito.
func RemitoPrefix(remitoType string) string {
	switch remitoType {
	case entity.RemitoTypeTrasladoInterno:
		return "TRI"
	case entity.RemitoTypeDevolucion:
		return "DEV"
	case entity.RemitoTypeConsignacion:
		return "CON"
	default:
		return "REM"
	}
}

// EstimatedDelivery heurística fija: fecha de generación + 3 días.
func EstimatedDelivery(generated time.Time) time.Time {
	return generated.Add(72 * time.Hour)
}
