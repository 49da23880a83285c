package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

var (
	_ repository.PurchaseRepository        = (*PurchaseRepo)(nil)
	_ repository.SupplierInvoiceRepository = (*SupplierInvoiceRepo)(nil)
)

const purchaseColumns = `id, number, supplier_id, status, debt_type, total_amount, commitment_amount, debt_amount,
	allows_partial_delivery, notes, created_by, created_at, confirmed_at, received_at, updated_at`

// PurchaseRepo compras y sus líneas sobre PostgreSQL.
type PurchaseRepo struct {
	q Querier
}

// NewPurchaseRepository construye el repositorio. Pasar pool o tx.
func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

// Create inserta cabecera y líneas.
func (r *PurchaseRepo) Create(ctx context.Context, p *entity.PurchaseOrder) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchases (`+purchaseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.Number, p.SupplierID, p.Status, p.DebtType, p.TotalAmount, p.CommitmentAmount, p.DebtAmount,
		p.AllowsPartialDelivery, p.Notes, p.CreatedBy, p.CreatedAt, p.ConfirmedAt, p.ReceivedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: compra %s", domain.ErrDuplicate, p.Number)
		}
		return domain.StorageError("insert purchase", err)
	}
	for i, it := range p.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO purchase_items (id, purchase_id, position, product_id, quantity, received_quantity, unit_price, unit_cost, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, p.ID, i, it.ProductID, it.Quantity, it.ReceivedQuantity, it.UnitPrice, it.UnitCost, it.TotalPrice,
		)
		if err != nil {
			return domain.StorageError("insert purchase item", err)
		}
	}
	return nil
}

// GetByID obtiene la compra con sus líneas. (nil, nil) si no existe.
func (r *PurchaseRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate como GetByID pero con SELECT ... FOR UPDATE sobre cabecera y líneas.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, true)
}

func (r *PurchaseRepo) get(ctx context.Context, id string, lock bool) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	p, err := scanPurchase(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageError("get purchase", err)
	}
	items, err := r.loadItems(ctx, []string{p.ID}, lock)
	if err != nil {
		return nil, err
	}
	p.Items = items[p.ID]
	return p, nil
}

func (r *PurchaseRepo) loadItems(ctx context.Context, purchaseIDs []string, lock bool) (map[string][]*entity.PurchaseLineItem, error) {
	query := `
		SELECT id, purchase_id, product_id, quantity, received_quantity, unit_price, unit_cost, total_price
		FROM purchase_items WHERE purchase_id = ANY($1) ORDER BY purchase_id, position`
	if lock {
		query += ` FOR UPDATE`
	}
	rows, err := r.q.Query(ctx, query, purchaseIDs)
	if err != nil {
		return nil, domain.StorageError("list purchase items", err)
	}
	defer rows.Close()
	out := make(map[string][]*entity.PurchaseLineItem)
	for rows.Next() {
		var it entity.PurchaseLineItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductID, &it.Quantity, &it.ReceivedQuantity,
			&it.UnitPrice, &it.UnitCost, &it.TotalPrice); err != nil {
			return nil, domain.StorageError("scan purchase item", err)
		}
		out[it.PurchaseID] = append(out[it.PurchaseID], &it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list purchase items", err)
	}
	return out, nil
}

// Update actualiza la cabecera.
func (r *PurchaseRepo) Update(ctx context.Context, p *entity.PurchaseOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE purchases SET status = $2, debt_type = $3, total_amount = $4, commitment_amount = $5, debt_amount = $6,
			allows_partial_delivery = $7, notes = $8, confirmed_at = $9, received_at = $10, updated_at = $11
		WHERE id = $1`,
		p.ID, p.Status, p.DebtType, p.TotalAmount, p.CommitmentAmount, p.DebtAmount,
		p.AllowsPartialDelivery, p.Notes, p.ConfirmedAt, p.ReceivedAt, p.UpdatedAt,
	)
	if err != nil {
		return domain.StorageError("update purchase", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("compra " + p.ID)
	}
	return nil
}

// UpdateItemReceived fija received_quantity (valor recalculado, no incremento).
func (r *PurchaseRepo) UpdateItemReceived(ctx context.Context, itemID string, received decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE purchase_items SET received_quantity = $2 WHERE id = $1`, itemID, received)
	if err != nil {
		return domain.StorageError("update purchase item received", err)
	}
	return nil
}

// Delete borra la compra; las líneas caen por ON DELETE CASCADE.
func (r *PurchaseRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError("delete purchase", err)
	}
	return nil
}

// List lista compras recientes primero.
func (r *PurchaseRepo) List(ctx context.Context, f repository.PurchaseFilter) ([]*entity.PurchaseOrder, error) {
	var where []string
	var args []any
	if f.SupplierID != "" {
		args = append(args, f.SupplierID)
		where = append(where, fmt.Sprintf("supplier_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + purchaseColumns + ` FROM purchases`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.StorageError("list purchases", err)
	}
	var list []*entity.PurchaseOrder
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			rows.Close()
			return nil, domain.StorageError("scan purchase", err)
		}
		list = append(list, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list purchases", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	items, err := r.loadItems(ctx, ids, false)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		p.Items = items[p.ID]
	}
	return list, nil
}

func scanPurchase(row pgx.Row) (*entity.PurchaseOrder, error) {
	var p entity.PurchaseOrder
	err := row.Scan(&p.ID, &p.Number, &p.SupplierID, &p.Status, &p.DebtType, &p.TotalAmount, &p.CommitmentAmount,
		&p.DebtAmount, &p.AllowsPartialDelivery, &p.Notes, &p.CreatedBy, &p.CreatedAt, &p.ConfirmedAt,
		&p.ReceivedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SupplierInvoiceRepo lectura de facturas de proveedor.
type SupplierInvoiceRepo struct {
	q Querier
}

// NewSupplierInvoiceRepository construye el repositorio.
func NewSupplierInvoiceRepository(q Querier) *SupplierInvoiceRepo {
	return &SupplierInvoiceRepo{q: q}
}

// GetByID devuelve (nil, nil) si no existe.
func (r *SupplierInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.SupplierInvoice, error) {
	var inv entity.SupplierInvoice
	err := r.q.QueryRow(ctx, `
		SELECT id, number, supplier_id, purchase_id, total, date, created_at
		FROM supplier_invoices WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.Number, &inv.SupplierID, &inv.PurchaseID, &inv.Total, &inv.Date, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageError("get supplier invoice", err)
	}
	return &inv, nil
}

// CountByPurchase facturas que referencian la compra.
func (r *SupplierInvoiceRepo) CountByPurchase(ctx context.Context, purchaseID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM supplier_invoices WHERE purchase_id = $1`, purchaseID).Scan(&n)
	if err != nil {
		return 0, domain.StorageError("count supplier invoices", err)
	}
	return n, nil
}
