// Package workflow define las máquinas de estado de compras, pedidos y remitos,
// la derivación del estado de los remitos de proveedor y el formato de numeración.
package workflow

import (
	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

type transitions map[string][]string

func (t transitions) allowed(from, to string) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (t transitions) known(status string) bool {
	_, ok := t[status]
	return ok
}

var orderTransitions = transitions{
	entity.OrderStatusPendientePreparacion: {entity.OrderStatusListoDespacho, entity.OrderStatusAprobado, entity.OrderStatusEnProceso, entity.OrderStatusCancelado},
	entity.OrderStatusAprobado:             {entity.OrderStatusListoDespacho, entity.OrderStatusEnProceso, entity.OrderStatusCancelado},
	entity.OrderStatusEnProceso:            {entity.OrderStatusListoDespacho, entity.OrderStatusCompletado, entity.OrderStatusCancelado},
	entity.OrderStatusListoDespacho:        {entity.OrderStatusCompletado, entity.OrderStatusCancelado},
	entity.OrderStatusCompletado:           {},
	entity.OrderStatusCancelado:            {},
}

var remitoTransitions = transitions{
	entity.RemitoGenerado:      {entity.RemitoPreparando, entity.RemitoCancelado},
	entity.RemitoPreparando:    {entity.RemitoListoDespacho, entity.RemitoCancelado},
	entity.RemitoListoDespacho: {entity.RemitoEnTransito, entity.RemitoCancelado},
	entity.RemitoEnTransito:    {entity.RemitoEntregado, entity.RemitoDevuelto},
	entity.RemitoEntregado:     {entity.RemitoDevuelto},
	entity.RemitoDevuelto:      {},
	entity.RemitoCancelado:     {},
}

var purchaseTransitions = transitions{
	entity.PurchaseStatusPending:   {entity.PurchaseStatusConfirmed, entity.PurchaseStatusCancelled},
	entity.PurchaseStatusConfirmed: {entity.PurchaseStatusReceived, entity.PurchaseStatusCancelled},
	entity.PurchaseStatusReceived:  {},
	entity.PurchaseStatusCancelled: {},
}

func check(t transitions, name, from, to string) error {
	if !t.known(to) {
		return domain.Invalid("estado desconocido", to)
	}
	if !t.allowed(from, to) {
		return &domain.TransitionError{Entity: name, From: from, To: to}
	}
	return nil
}

// ValidateOrderTransition valida un cambio de estado de pedido.
func ValidateOrderTransition(from, to string) error {
	return check(orderTransitions, "pedido", from, to)
}

// ValidateRemitoTransition valida un cambio de estado de remito de salida.
func ValidateRemitoTransition(from, to string) error {
	return check(remitoTransitions, "remito", from, to)
}

// ValidatePurchaseTransition valida un cambio de estado de compra.
func ValidatePurchaseTransition(from, to string) error {
	return check(purchaseTransitions, "compra", from, to)
}

// IsTerminalOrderStatus indica si el pedido ya no admite transiciones.
func IsTerminalOrderStatus(s string) bool {
	return len(orderTransitions[s]) == 0
}

// IsTerminalRemitoStatus indica si el remito ya no admite cambios (devuelto, cancelado).
func IsTerminalRemitoStatus(s string) bool {
	return len(remitoTransitions[s]) == 0
}

// RemitoEligibleOrderStatus estados de pedido desde los que se puede emitir un remito.
func RemitoEligibleOrderStatus(s string) bool {
	switch s {
	case entity.OrderStatusAprobado, entity.OrderStatusEnProceso, entity.OrderStatusListoDespacho:
		return true
	}
	return false
}

// AutoReserveStatus estados que disparan la reserva automática de stock.
func AutoReserveStatus(s string) bool {
	return s == entity.OrderStatusAprobado || s == entity.OrderStatusListoDespacho
}

// StageForRemitoStatus infiere la etapa de trazabilidad para un nuevo estado de remito.
func StageForRemitoStatus(status string) string {
	switch status {
	case entity.RemitoGenerado, entity.RemitoPreparando:
		return entity.StagePreparacion
	case entity.RemitoListoDespacho:
		return entity.StageAlmacenamiento
	case entity.RemitoEnTransito:
		return entity.StageTransito
	case entity.RemitoEntregado:
		return entity.StageEntrega
	case entity.RemitoDevuelto, entity.RemitoCancelado:
		return entity.StageDevuelto
	}
	return entity.StagePreparacion
}
