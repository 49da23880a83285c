package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain/ledger"
)

// Estados de una orden de compra.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusConfirmed = "confirmed"
	PurchaseStatusReceived  = "received"
	PurchaseStatusCancelled = "cancelled"
)

// Clasificación de la deuda de una compra.
const (
	DebtTypeCompromiso   = "compromiso"    // compromiso futuro
	DebtTypeDeudaDirecta = "deuda_directa" // deuda inmediata
)

// PurchaseOrder orden de compra a proveedor con sus líneas.
type PurchaseOrder struct {
	ID                    string
	Number                string // COMP + AA + secuencia
	SupplierID            string
	Status                string
	DebtType              string
	TotalAmount           decimal.Decimal
	CommitmentAmount      decimal.Decimal
	DebtAmount            decimal.Decimal
	AllowsPartialDelivery bool
	Notes                 *string
	CreatedBy             *string
	CreatedAt             time.Time
	ConfirmedAt           *time.Time
	ReceivedAt            *time.Time
	UpdatedAt             time.Time
	Items                 []*PurchaseLineItem
}

// PurchaseLineItem línea de una compra. ReceivedQuantity solo la escribe el conciliador de remitos.
type PurchaseLineItem struct {
	ID               string
	PurchaseID       string
	ProductID        string
	Quantity         decimal.Decimal
	ReceivedQuantity decimal.Decimal
	UnitPrice        decimal.Decimal
	UnitCost         decimal.Decimal
	TotalPrice       decimal.Decimal
}

// PendingQuantity cantidad aún no recibida (nunca negativa).
func (l *PurchaseLineItem) PendingQuantity() decimal.Decimal {
	return ledger.PendingQuantity(l.Quantity, l.ReceivedQuantity)
}

// FullyReceived indica si la línea ya no tiene pendiente.
func (l *PurchaseLineItem) FullyReceived() bool {
	return l.PendingQuantity().IsZero()
}

// IsValidDebtType valida la clasificación de deuda.
func IsValidDebtType(t string) bool {
	return t == DebtTypeCompromiso || t == DebtTypeDeudaDirecta
}

// SplitAmounts reparte el total entre compromiso y deuda según DebtType.
func (p *PurchaseOrder) SplitAmounts() {
	if p.DebtType == DebtTypeDeudaDirecta {
		p.DebtAmount = p.TotalAmount
		p.CommitmentAmount = decimal.Zero
		return
	}
	p.CommitmentAmount = p.TotalAmount
	p.DebtAmount = decimal.Zero
}

// AmountsBalanced verifica debt_amount + commitment_amount == total_amount.
func (p *PurchaseOrder) AmountsBalanced() bool {
	return p.DebtAmount.Add(p.CommitmentAmount).Equal(p.TotalAmount)
}

// FullyReceived indica si todas las líneas están completamente recibidas.
func (p *PurchaseOrder) FullyReceived() bool {
	if len(p.Items) == 0 {
		return false
	}
	for _, it := range p.Items {
		if !it.FullyReceived() {
			return false
		}
	}
	return true
}

// Item busca una línea por ID.
func (p *PurchaseOrder) Item(id string) *PurchaseLineItem {
	for _, it := range p.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}
