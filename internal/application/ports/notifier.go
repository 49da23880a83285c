package ports

import "context"

// Eventos publicados por los flujos.
const (
	EventOrderCreated        = "order.created"
	EventOrderStatusChanged  = "order.status_changed"
	EventRemitoCreated       = "remito.created"
	EventRemitoStatusChanged = "remito.status_changed"
	EventDeliveryNoteCreated = "delivery_note.created"
)

// Notifier destino de notificaciones "fire-and-forget". Un fallo al notificar nunca
// revierte la transacción del flujo; el caller solo lo registra.
type Notifier interface {
	Notify(ctx context.Context, event string, payload any) error
}

// NopNotifier descarta las notificaciones.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, any) error { return nil }
