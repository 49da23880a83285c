package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRemitoRequest body para POST /api/remitos.
type CreateRemitoRequest struct {
	OrderID          string              `json:"order_id" validate:"required"`
	ClientID         string              `json:"client_id" validate:"required"`
	RemitoType       string              `json:"remito_type" validate:"omitempty,oneof=entrega_cliente traslado_interno devolucion consignacion"`
	DeliveryAddress  string              `json:"delivery_address" validate:"max=300"`
	DeliveryContact  string              `json:"delivery_contact" validate:"max=150"`
	DeliveryPhone    string              `json:"delivery_phone" validate:"max=50"`
	TransportCompany string              `json:"transport_company" validate:"max=150"`
	TrackingNumber   string              `json:"tracking_number" validate:"max=100"`
	TransportCost    decimal.Decimal     `json:"transport_cost"`
	Notes            *string             `json:"notes,omitempty"`
	Items            []RemitoItemRequest `json:"items" validate:"required,min=1,dive"`
}

// RemitoItemRequest ítem del remito.
type RemitoItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// UpdateRemitoRequest body para PATCH /api/remitos/:id.
// Location, Temperature, Humidity y StageNotes se registran en la trazabilidad si cambia el estado.
type UpdateRemitoRequest struct {
	Status            Optional[string]   `json:"status"`
	DeliveryAddress   Optional[string]   `json:"delivery_address"`
	DeliveryContact   Optional[string]   `json:"delivery_contact"`
	DeliveryPhone     Optional[string]   `json:"delivery_phone"`
	TransportCompany  Optional[string]   `json:"transport_company"`
	TrackingNumber    Optional[string]   `json:"tracking_number"`
	SignatureName     Optional[string]   `json:"signature_name"`
	SignatureDocument Optional[string]   `json:"signature_document"`
	PhotoURL          Optional[string]   `json:"photo_url"`
	Notes             Optional[string]   `json:"notes"`
	Items             []RemitoItemUpdate `json:"items" validate:"dive"`

	Location        string   `json:"location" validate:"max=200"`
	ResponsibleName string   `json:"responsible_name" validate:"max=150"`
	Temperature     *float64 `json:"temperature,omitempty"`
	Humidity        *float64 `json:"humidity,omitempty"`
	StageNotes      *string  `json:"stage_notes,omitempty"`
}

// RemitoItemUpdate cantidades preparadas / entregadas / devueltas de un ítem.
type RemitoItemUpdate struct {
	ID                string           `json:"id" validate:"required"`
	PreparedQuantity  *decimal.Decimal `json:"prepared_quantity,omitempty"`
	DeliveredQuantity *decimal.Decimal `json:"delivered_quantity,omitempty"`
	ReturnedQuantity  *decimal.Decimal `json:"returned_quantity,omitempty"`
}

// RemitoResponse remito de salida con ítems.
type RemitoResponse struct {
	ID                string               `json:"id"`
	Number            string               `json:"number"`
	OrderID           string               `json:"order_id"`
	ClientID          string               `json:"client_id"`
	RemitoType        string               `json:"remito_type"`
	Status            string               `json:"status"`
	DeliveryAddress   string               `json:"delivery_address"`
	DeliveryContact   string               `json:"delivery_contact"`
	DeliveryPhone     string               `json:"delivery_phone"`
	TransportCompany  string               `json:"transport_company"`
	TrackingNumber    string               `json:"tracking_number"`
	TransportCost     decimal.Decimal      `json:"transport_cost"`
	GenerationDate    time.Time            `json:"generation_date"`
	DispatchDate      *time.Time           `json:"dispatch_date,omitempty"`
	DeliveryDate      *time.Time           `json:"delivery_date,omitempty"`
	TotalProducts     int                  `json:"total_products"`
	TotalQuantity     decimal.Decimal      `json:"total_quantity"`
	TotalValue        decimal.Decimal      `json:"total_value"`
	SignatureName     string               `json:"signature_name,omitempty"`
	SignatureDocument string               `json:"signature_document,omitempty"`
	PhotoURL          string               `json:"photo_url,omitempty"`
	Notes             *string              `json:"notes,omitempty"`
	CreatedBy         *string              `json:"created_by"`
	Items             []RemitoItemResponse `json:"items"`
}

// RemitoItemResponse ítem del remito.
type RemitoItemResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	Status            string          `json:"status"`
	PreparedQuantity  decimal.Decimal `json:"prepared_quantity"`
	DeliveredQuantity decimal.Decimal `json:"delivered_quantity"`
	ReturnedQuantity  decimal.Decimal `json:"returned_quantity"`
}

// TrazabilidadResponse entrada de la bitácora.
type TrazabilidadResponse struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id"`
	Stage             string     `json:"stage"`
	Location          string     `json:"location,omitempty"`
	ResponsibleUserID *string    `json:"responsible_user_id"`
	ResponsibleName   string     `json:"responsible_name,omitempty"`
	StageStart        time.Time  `json:"stage_start"`
	StageEnd          *time.Time `json:"stage_end,omitempty"`
	Temperature       *float64   `json:"temperature,omitempty"`
	Humidity          *float64   `json:"humidity,omitempty"`
	QualityNotes      *string    `json:"quality_notes,omitempty"`
	IsAutomatic       bool       `json:"is_automatic"`
	Notes             *string    `json:"notes,omitempty"`
}

// TrackingResponse vista de seguimiento GET /api/remitos/:id/tracking.
type TrackingResponse struct {
	Remito            RemitoResponse         `json:"remito"`
	History           []TrazabilidadResponse `json:"history"`
	EstimatedDelivery time.Time              `json:"estimated_delivery"`
}

// RemitoListResponse listado paginado.
type RemitoListResponse struct {
	Items []RemitoResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
