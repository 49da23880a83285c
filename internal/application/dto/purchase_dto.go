package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePurchaseRequest body para POST /api/purchases.
type CreatePurchaseRequest struct {
	SupplierID            string                `json:"supplier_id" validate:"required"`
	DebtType              string                `json:"debt_type" validate:"required,oneof=compromiso deuda_directa"`
	AllowsPartialDelivery bool                  `json:"allows_partial_delivery"`
	Notes                 *string               `json:"notes,omitempty"`
	Items                 []PurchaseItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PurchaseItemRequest línea de compra.
type PurchaseItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// UpdatePurchaseRequest body para PATCH /api/purchases/:id. Solo se modifican los campos presentes.
type UpdatePurchaseRequest struct {
	Status                Optional[string]          `json:"status"`
	DebtType              Optional[string]          `json:"debt_type"`
	AllowsPartialDelivery Optional[bool]            `json:"allows_partial_delivery"`
	Notes                 Optional[string]          `json:"notes"`
	CommitmentAmount      Optional[decimal.Decimal] `json:"commitment_amount"`
	DebtAmount            Optional[decimal.Decimal] `json:"debt_amount"`
}

// PurchaseResponse compra con sus líneas.
type PurchaseResponse struct {
	ID                    string                 `json:"id"`
	Number                string                 `json:"number"`
	SupplierID            string                 `json:"supplier_id"`
	Status                string                 `json:"status"`
	DebtType              string                 `json:"debt_type"`
	TotalAmount           decimal.Decimal        `json:"total_amount"`
	CommitmentAmount      decimal.Decimal        `json:"commitment_amount"`
	DebtAmount            decimal.Decimal        `json:"debt_amount"`
	AllowsPartialDelivery bool                   `json:"allows_partial_delivery"`
	Notes                 *string                `json:"notes,omitempty"`
	CreatedBy             *string                `json:"created_by"`
	CreatedAt             time.Time              `json:"created_at"`
	ConfirmedAt           *time.Time             `json:"confirmed_at,omitempty"`
	ReceivedAt            *time.Time             `json:"received_at,omitempty"`
	Items                 []PurchaseItemResponse `json:"items"`
}

// PurchaseItemResponse línea con cantidad pendiente derivada.
type PurchaseItemResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	PendingQuantity  decimal.Decimal `json:"pending_quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TotalPrice       decimal.Decimal `json:"total_price"`
}

// PurchaseListResponse listado paginado.
type PurchaseListResponse struct {
	Items []PurchaseResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
