package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pedido de venta.
const (
	OrderStatusPendientePreparacion = "pendiente_preparacion"
	OrderStatusAprobado             = "aprobado"
	OrderStatusEnProceso            = "en_proceso"
	OrderStatusListoDespacho        = "listo_despacho"
	OrderStatusCompletado           = "completado"
	OrderStatusCancelado            = "cancelado"
)

// Estado del remito asociado a un pedido.
const (
	RemitoStatusSinRemito       = "sin_remito"
	RemitoStatusRemitoGenerado  = "remito_generado"
	RemitoStatusRemitoEntregado = "remito_entregado"
)

// Origen del pedido.
const (
	OrderSourceInterno = "interno"
	OrderSourceExterno = "externo" // canal de venta externo (tienda online)
)

// SalesOrder pedido de un cliente.
type SalesOrder struct {
	ID                  string
	Number              string // PED + AA + secuencia
	ExternalOrderID     *string
	ExternalOrderNumber *string
	ClientID            string
	Status              string
	StockReserved       bool
	RemitoStatus        string
	Source              string
	DeliveryAddress     string
	DeliveryContact     string
	DeliveryPhone       string
	TransportCompany    string
	TransportCost       decimal.Decimal
	Notes               *string
	TotalAmount         decimal.Decimal
	CreatedBy           *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Items               []*OrderLineItem
}

// OrderLineItem línea de pedido.
type OrderLineItem struct {
	ID            string
	OrderID       string
	ProductID     string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	TotalPrice    decimal.Decimal
	BatchNumber   *string
	StockReserved bool
}

// FullyReserved indica si el pedido y todas sus líneas tienen stock reservado.
func (o *SalesOrder) FullyReserved() bool {
	if !o.StockReserved || len(o.Items) == 0 {
		return false
	}
	for _, it := range o.Items {
		if !it.StockReserved {
			return false
		}
	}
	return true
}

// ReservedQuantity suma la cantidad reservada de un producto en el pedido.
func (o *SalesOrder) ReservedQuantity(productID string) decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		if it.ProductID == productID && it.StockReserved {
			total = total.Add(it.Quantity)
		}
	}
	return total
}
