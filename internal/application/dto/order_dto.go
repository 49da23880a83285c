package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest body para POST /api/orders y para la importación desde el canal externo.
// ExternalOrderID / ExternalOrderNumber hacen idempotente la creación.
type CreateOrderRequest struct {
	ClientID            string             `json:"client_id" validate:"required"`
	ExternalOrderID     *string            `json:"external_order_id,omitempty" validate:"omitempty,max=100"`
	ExternalOrderNumber *string            `json:"external_order_number,omitempty" validate:"omitempty,max=100"`
	DeliveryAddress     string             `json:"delivery_address" validate:"max=300"`
	DeliveryContact     string             `json:"delivery_contact" validate:"max=150"`
	DeliveryPhone       string             `json:"delivery_phone" validate:"max=50"`
	TransportCompany    string             `json:"transport_company" validate:"max=150"`
	TransportCost       decimal.Decimal    `json:"transport_cost"`
	Notes               *string            `json:"notes,omitempty"`
	Items               []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderItemRequest línea de pedido.
type OrderItemRequest struct {
	ProductID   string          `json:"product_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	BatchNumber *string         `json:"batch_number,omitempty"`
}

// UpdateOrderRequest body para PATCH /api/orders/:id.
type UpdateOrderRequest struct {
	Status           Optional[string]          `json:"status"`
	DeliveryAddress  Optional[string]          `json:"delivery_address"`
	DeliveryContact  Optional[string]          `json:"delivery_contact"`
	DeliveryPhone    Optional[string]          `json:"delivery_phone"`
	TransportCompany Optional[string]          `json:"transport_company"`
	TransportCost    Optional[decimal.Decimal] `json:"transport_cost"`
	Notes            Optional[string]          `json:"notes"`
}

// OrderResponse pedido con líneas.
type OrderResponse struct {
	ID                  string              `json:"id"`
	Number              string              `json:"number"`
	ExternalOrderID     *string             `json:"external_order_id"`
	ExternalOrderNumber *string             `json:"external_order_number"`
	ClientID            string              `json:"client_id"`
	Status              string              `json:"status"`
	StockReserved       bool                `json:"stock_reserved"`
	RemitoStatus        string              `json:"remito_status"`
	Source              string              `json:"source"`
	DeliveryAddress     string              `json:"delivery_address"`
	DeliveryContact     string              `json:"delivery_contact"`
	DeliveryPhone       string              `json:"delivery_phone"`
	TransportCompany    string              `json:"transport_company"`
	TransportCost       decimal.Decimal     `json:"transport_cost"`
	TotalAmount         decimal.Decimal     `json:"total_amount"`
	Notes               *string             `json:"notes,omitempty"`
	CreatedBy           *string             `json:"created_by"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
	Items               []OrderItemResponse `json:"items"`
}

// OrderItemResponse línea de pedido.
type OrderItemResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	BatchNumber   *string         `json:"batch_number,omitempty"`
	StockReserved bool            `json:"stock_reserved"`
}

// CreateOrderResult indica si el pedido se creó o ya existía (importación idempotente).
type CreateOrderResult struct {
	Order   *OrderResponse `json:"order"`
	Created bool           `json:"created"`
}

// OrderListResponse listado paginado.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
