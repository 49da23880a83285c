package repository

import (
	"context"

	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

// OrderFilter filtros de listado de pedidos.
type OrderFilter struct {
	ClientID string
	Status   string
	Limit    int
	Offset   int
}

// SalesOrderRepository persistencia de pedidos de venta.
type SalesOrderRepository interface {
	// Create inserta cabecera y líneas. Devuelve domain.ErrDuplicate si el id externo ya existe.
	Create(ctx context.Context, o *entity.SalesOrder) error
	GetByID(ctx context.Context, id string) (*entity.SalesOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.SalesOrder, error)
	GetByExternalID(ctx context.Context, externalID string) (*entity.SalesOrder, error)
	GetByExternalNumber(ctx context.Context, externalNumber string) (*entity.SalesOrder, error)
	// Update actualiza solo la cabecera.
	Update(ctx context.Context, o *entity.SalesOrder) error
	UpdateItemReserved(ctx context.Context, itemID string, reserved bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f OrderFilter) ([]*entity.SalesOrder, error)
}
