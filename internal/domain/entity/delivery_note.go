package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un remito de proveedor. Solo cancelled se fija desde fuera; el resto se deriva.
const (
	DeliveryNoteStatusPending   = "pending"
	DeliveryNoteStatusPartial   = "partial"
	DeliveryNoteStatusComplete  = "complete"
	DeliveryNoteStatusCancelled = "cancelled"
)

// SupplierDeliveryNote remito de proveedor (mercadería recibida).
type SupplierDeliveryNote struct {
	ID             string
	Number         string
	SupplierID     string
	PurchaseID     *string
	InvoiceID      *string
	DeliveryDate   time.Time
	Status         string
	MatchesInvoice bool
	Notes          *string
	CreatedBy      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []*DeliveryNoteItem
}

// DeliveryNoteItem línea recibida. PurchaseItemID es referencia, no propiedad.
type DeliveryNoteItem struct {
	ID             string
	DeliveryNoteID string
	ProductID      *string
	PurchaseItemID *string
	Quantity       decimal.Decimal
	QualityChecked bool
	QualityNotes   *string
}

// Cancelled indica si el remito fue anulado.
func (n *SupplierDeliveryNote) Cancelled() bool {
	return n.Status == DeliveryNoteStatusCancelled
}

// Item busca un ítem por ID.
func (n *SupplierDeliveryNote) Item(id string) *DeliveryNoteItem {
	for _, it := range n.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}
