package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

// RemitoFilter filtros de listado de remitos de salida.
type RemitoFilter struct {
	OrderID string
	Status  string
	Limit   int
	Offset  int
}

// RemitoRepository persistencia de remitos de salida.
type RemitoRepository interface {
	// Create inserta cabecera e ítems. Devuelve domain.ErrDuplicate si el pedido ya tiene remito.
	Create(ctx context.Context, r *entity.OutboundRemito) error
	GetByID(ctx context.Context, id string) (*entity.OutboundRemito, error)
	GetForUpdate(ctx context.Context, id string) (*entity.OutboundRemito, error)
	GetByOrderID(ctx context.Context, orderID string) (*entity.OutboundRemito, error)
	Update(ctx context.Context, r *entity.OutboundRemito) error
	UpdateItem(ctx context.Context, item *entity.RemitoItem) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f RemitoFilter) ([]*entity.OutboundRemito, error)
}

// TrazabilidadRepository bitácora de etapas (solo agregado; stage_end es lo único mutable).
type TrazabilidadRepository interface {
	Append(ctx context.Context, e *entity.TrazabilidadEntry) error
	// CloseOpen fija stage_end en las entradas abiertas del remito.
	CloseOpen(ctx context.Context, remitoID string, at time.Time) error
	// ListByRemito ordena por stage_start ascendente.
	ListByRemito(ctx context.Context, remitoID string) ([]*entity.TrazabilidadEntry, error)
	DeleteByRemito(ctx context.Context, remitoID string) error
}
