package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateDeliveryNoteRequest body para POST /api/delivery-notes.
// Number es opcional; si va vacío se genera RPR + AA + secuencia.
type CreateDeliveryNoteRequest struct {
	Number       string                    `json:"number,omitempty" validate:"omitempty,max=50"`
	SupplierID   string                    `json:"supplier_id" validate:"required"`
	PurchaseID   *string                   `json:"purchase_id,omitempty"`
	InvoiceID    *string                   `json:"invoice_id,omitempty"`
	DeliveryDate *time.Time                `json:"delivery_date,omitempty"`
	Notes        *string                   `json:"notes,omitempty"`
	Items        []DeliveryNoteItemRequest `json:"items" validate:"dive"`
}

// DeliveryNoteItemRequest ítem recibido. PurchaseItemID vincula con la línea de compra.
type DeliveryNoteItemRequest struct {
	ProductID      *string         `json:"product_id,omitempty"`
	PurchaseItemID *string         `json:"purchase_item_id,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	QualityChecked bool            `json:"quality_checked"`
	QualityNotes   *string         `json:"quality_notes,omitempty"`
}

// UpdateDeliveryNoteItemRequest body para PATCH /api/delivery-notes/:id/items/:itemId.
type UpdateDeliveryNoteItemRequest struct {
	Quantity       Optional[decimal.Decimal] `json:"quantity"`
	QualityChecked Optional[bool]            `json:"quality_checked"`
	QualityNotes   Optional[string]          `json:"quality_notes"`
}

// LinkInvoiceRequest body para POST /api/delivery-notes/:id/invoice.
type LinkInvoiceRequest struct {
	InvoiceID string `json:"invoice_id" validate:"required"`
}

// DeliveryNoteResponse remito de proveedor con ítems.
type DeliveryNoteResponse struct {
	ID             string                     `json:"id"`
	Number         string                     `json:"number"`
	SupplierID     string                     `json:"supplier_id"`
	PurchaseID     *string                    `json:"purchase_id"`
	InvoiceID      *string                    `json:"invoice_id"`
	DeliveryDate   time.Time                  `json:"delivery_date"`
	Status         string                     `json:"status"`
	MatchesInvoice bool                       `json:"matches_invoice"`
	Notes          *string                    `json:"notes,omitempty"`
	CreatedBy      *string                    `json:"created_by"`
	CreatedAt      time.Time                  `json:"created_at"`
	Items          []DeliveryNoteItemResponse `json:"items"`
}

// DeliveryNoteItemResponse ítem del remito de proveedor.
type DeliveryNoteItemResponse struct {
	ID             string          `json:"id"`
	ProductID      *string         `json:"product_id"`
	PurchaseItemID *string         `json:"purchase_item_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	QualityChecked bool            `json:"quality_checked"`
	QualityNotes   *string         `json:"quality_notes,omitempty"`
}
