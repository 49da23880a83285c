package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplierInvoice factura de proveedor. El motor solo la consulta para vincularla a un remito
// de proveedor y para impedir el borrado de compras referenciadas.
type SupplierInvoice struct {
	ID         string
	Number     string
	SupplierID string
	PurchaseID *string
	Total      decimal.Decimal
	Date       time.Time
	CreatedAt  time.Time
}
