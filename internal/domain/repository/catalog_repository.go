package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

// SupplierRepository lectura de proveedores. GetByID devuelve (nil, nil) si no existe.
type SupplierRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
}

// ClientRepository lectura de clientes. GetByID devuelve (nil, nil) si no existe.
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Client, error)
}

// ProductRepository catálogo de productos y stock. No pertenece al motor de pedidos;
// este solo consulta existencia y ajusta stock al reservar o liberar.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Exists(ctx context.Context, id string) (bool, error)
	CurrentStock(ctx context.Context, id string) (decimal.Decimal, error)
	// GetStockForUpdate bloquea la fila del producto (SELECT FOR UPDATE) y devuelve su stock.
	GetStockForUpdate(ctx context.Context, id string) (decimal.Decimal, error)
	// AdjustStock suma delta (puede ser negativo) al stock actual.
	AdjustStock(ctx context.Context, id string, delta decimal.Decimal) error
}

// SequenceRepository numeración correlativa por prefijo y año.
type SequenceRepository interface {
	Next(ctx context.Context, prefix string, year int) (int64, error)
}
