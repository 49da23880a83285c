package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

// Querier lo que los repositorios necesitan de la conexión. Lo cumplen *pgxpool.Pool y pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewRepos arma todos los repositorios sobre q (pool o tx).
func NewRepos(q Querier) repository.Repos {
	return repository.Repos{
		Suppliers:     NewSupplierRepository(q),
		Clients:       NewClientRepository(q),
		Products:      NewProductRepository(q),
		Sequences:     NewSequenceRepository(q),
		Purchases:     NewPurchaseRepository(q),
		Invoices:      NewSupplierInvoiceRepository(q),
		DeliveryNotes: NewDeliveryNoteRepository(q),
		Orders:        NewSalesOrderRepository(q),
		Remitos:       NewRemitoRepository(q),
		Trazabilidad:  NewTrazabilidadRepository(q),
	}
}
