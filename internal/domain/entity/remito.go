package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de remito de salida.
const (
	RemitoTypeEntregaCliente  = "entrega_cliente"
	RemitoTypeTrasladoInterno = "traslado_interno"
	RemitoTypeDevolucion      = "devolucion"
	RemitoTypeConsignacion    = "consignacion"
)

// Estados de un remito de salida.
const (
	RemitoGenerado      = "generado"
	RemitoPreparando    = "preparando"
	RemitoListoDespacho = "listo_despacho"
	RemitoEnTransito    = "en_transito"
	RemitoEntregado     = "entregado"
	RemitoDevuelto      = "devuelto"
	RemitoCancelado     = "cancelado"
)

// Estados por ítem.
const (
	RemitoItemPreparado = "preparado"
	RemitoItemParcial   = "parcial"
	RemitoItemCompleto  = "completo"
	RemitoItemDevuelto  = "devuelto"
)

// OutboundRemito remito de entrega a cliente generado desde un pedido.
type OutboundRemito struct {
	ID                string
	Number            string
	OrderID           string
	ClientID          string
	RemitoType        string
	Status            string
	DeliveryAddress   string
	DeliveryContact   string
	DeliveryPhone     string
	TransportCompany  string
	TrackingNumber    string
	TransportCost     decimal.Decimal
	GenerationDate    time.Time
	DispatchDate      *time.Time
	DeliveryDate      *time.Time
	TotalProducts     int
	TotalQuantity     decimal.Decimal
	TotalValue        decimal.Decimal
	SignatureName     string
	SignatureDocument string
	PhotoURL          string
	Notes             *string
	CreatedBy         *string
	UpdatedAt         time.Time
	Items             []*RemitoItem
}

// RemitoItem línea del remito con cantidades preparadas, entregadas y devueltas.
type RemitoItem struct {
	ID                string
	RemitoID          string
	ProductID         string
	Quantity          decimal.Decimal
	UnitPrice         decimal.Decimal
	TotalPrice        decimal.Decimal
	Status            string
	PreparedQuantity  decimal.Decimal
	DeliveredQuantity decimal.Decimal
	ReturnedQuantity  decimal.Decimal
}

// Validate verifica delivered + returned <= prepared <= quantity.
func (it *RemitoItem) Validate() error {
	if it.PreparedQuantity.IsNegative() || it.DeliveredQuantity.IsNegative() || it.ReturnedQuantity.IsNegative() {
		return fmt.Errorf("ítem %s: cantidades negativas", it.ID)
	}
	if it.PreparedQuantity.GreaterThan(it.Quantity) {
		return fmt.Errorf("ítem %s: preparado %s supera cantidad %s", it.ID, it.PreparedQuantity, it.Quantity)
	}
	if it.DeliveredQuantity.Add(it.ReturnedQuantity).GreaterThan(it.PreparedQuantity) {
		return fmt.Errorf("ítem %s: entregado + devuelto supera preparado %s", it.ID, it.PreparedQuantity)
	}
	return nil
}

// IsValidRemitoType valida el tipo de remito.
func IsValidRemitoType(t string) bool {
	switch t {
	case RemitoTypeEntregaCliente, RemitoTypeTrasladoInterno, RemitoTypeDevolucion, RemitoTypeConsignacion:
		return true
	}
	return false
}

// RecalculateTotals actualiza TotalProducts, TotalQuantity y TotalValue desde los ítems.
func (r *OutboundRemito) RecalculateTotals() {
	r.TotalProducts = len(r.Items)
	r.TotalQuantity = decimal.Zero
	r.TotalValue = decimal.Zero
	for _, it := range r.Items {
		r.TotalQuantity = r.TotalQuantity.Add(it.Quantity)
		r.TotalValue = r.TotalValue.Add(it.TotalPrice)
	}
}
