package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, sku, name, price, cost, stock, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Price, &p.Cost, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageError("get product", err)
	}
	return &p, nil
}

// Exists indica si el producto está en el catálogo.
func (r *ProductRepo) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, domain.StorageError("product exists", err)
	}
	return ok, nil
}

// CurrentStock devuelve el stock disponible.
func (r *ProductRepo) CurrentStock(ctx context.Context, id string) (decimal.Decimal, error) {
	return r.stock(ctx, `SELECT stock FROM products WHERE id = $1`, id)
}

// GetStockForUpdate bloquea la fila del producto hasta el fin de la transacción.
func (r *ProductRepo) GetStockForUpdate(ctx context.Context, id string) (decimal.Decimal, error) {
	return r.stock(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepo) stock(ctx context.Context, query, id string) (decimal.Decimal, error) {
	var stock decimal.Decimal
	err := r.q.QueryRow(ctx, query, id).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.NotFound("producto " + id)
		}
		return decimal.Zero, domain.StorageError("get product stock", err)
	}
	return stock, nil
}

// AdjustStock suma delta al stock.
func (r *ProductRepo) AdjustStock(ctx context.Context, id string, delta decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`,
		id, delta,
	)
	if err != nil {
		return domain.StorageError("adjust stock", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("producto " + id)
	}
	return nil
}
