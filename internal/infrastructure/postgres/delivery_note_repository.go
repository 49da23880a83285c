package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

var _ repository.DeliveryNoteRepository = (*DeliveryNoteRepo)(nil)

// DeliveryNoteRepo remitos de proveedor sobre PostgreSQL.
type DeliveryNoteRepo struct {
	q Querier
}

// NewDeliveryNoteRepository construye el repositorio. Pasar pool o tx.
func NewDeliveryNoteRepository(q Querier) *DeliveryNoteRepo {
	return &DeliveryNoteRepo{q: q}
}

// Create inserta cabecera e ítems.
func (r *DeliveryNoteRepo) Create(ctx context.Context, n *entity.SupplierDeliveryNote) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO supplier_delivery_notes (id, number, supplier_id, purchase_id, invoice_id, delivery_date, status,
			matches_invoice, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		n.ID, n.Number, n.SupplierID, n.PurchaseID, n.InvoiceID, n.DeliveryDate, n.Status,
		n.MatchesInvoice, n.Notes, n.CreatedBy, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: remito de proveedor %s", domain.ErrDuplicate, n.Number)
		}
		return domain.StorageError("insert delivery note", err)
	}
	for i, it := range n.Items {
		if err := r.insertItem(ctx, it, i); err != nil {
			return err
		}
	}
	return nil
}

// GetByID obtiene el remito con sus ítems. (nil, nil) si no existe.
func (r *DeliveryNoteRepo) GetByID(ctx context.Context, id string) (*entity.SupplierDeliveryNote, error) {
	var n entity.SupplierDeliveryNote
	err := r.q.QueryRow(ctx, `
		SELECT id, number, supplier_id, purchase_id, invoice_id, delivery_date, status, matches_invoice,
			notes, created_by, created_at, updated_at
		FROM supplier_delivery_notes WHERE id = $1`, id,
	).Scan(&n.ID, &n.Number, &n.SupplierID, &n.PurchaseID, &n.InvoiceID, &n.DeliveryDate, &n.Status,
		&n.MatchesInvoice, &n.Notes, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageError("get delivery note", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, delivery_note_id, product_id, purchase_item_id, quantity, quality_checked, quality_notes
		FROM delivery_note_items WHERE delivery_note_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, domain.StorageError("list delivery note items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.DeliveryNoteItem
		if err := rows.Scan(&it.ID, &it.DeliveryNoteID, &it.ProductID, &it.PurchaseItemID, &it.Quantity,
			&it.QualityChecked, &it.QualityNotes); err != nil {
			return nil, domain.StorageError("scan delivery note item", err)
		}
		n.Items = append(n.Items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list delivery note items", err)
	}
	return &n, nil
}

// Update actualiza la cabecera.
func (r *DeliveryNoteRepo) Update(ctx context.Context, n *entity.SupplierDeliveryNote) error {
	_, err := r.q.Exec(ctx, `
		UPDATE supplier_delivery_notes SET status = $2, invoice_id = $3, matches_invoice = $4, notes = $5, updated_at = $6
		WHERE id = $1`,
		n.ID, n.Status, n.InvoiceID, n.MatchesInvoice, n.Notes, n.UpdatedAt,
	)
	if err != nil {
		return domain.StorageError("update delivery note", err)
	}
	return nil
}

// CreateItem agrega un ítem al final del remito.
func (r *DeliveryNoteRepo) CreateItem(ctx context.Context, it *entity.DeliveryNoteItem) error {
	var next int
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM delivery_note_items WHERE delivery_note_id = $1`,
		it.DeliveryNoteID,
	).Scan(&next)
	if err != nil {
		return domain.StorageError("next delivery note item position", err)
	}
	return r.insertItem(ctx, it, next)
}

func (r *DeliveryNoteRepo) insertItem(ctx context.Context, it *entity.DeliveryNoteItem, position int) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO delivery_note_items (id, delivery_note_id, position, product_id, purchase_item_id, quantity,
			quality_checked, quality_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		it.ID, it.DeliveryNoteID, position, it.ProductID, it.PurchaseItemID, it.Quantity,
		it.QualityChecked, it.QualityNotes,
	)
	if err != nil {
		return domain.StorageError("insert delivery note item", err)
	}
	return nil
}

// UpdateItem actualiza cantidad y control de calidad.
func (r *DeliveryNoteRepo) UpdateItem(ctx context.Context, it *entity.DeliveryNoteItem) error {
	_, err := r.q.Exec(ctx, `
		UPDATE delivery_note_items SET quantity = $2, quality_checked = $3, quality_notes = $4 WHERE id = $1`,
		it.ID, it.Quantity, it.QualityChecked, it.QualityNotes,
	)
	if err != nil {
		return domain.StorageError("update delivery note item", err)
	}
	return nil
}

// DeleteItem borra un ítem.
func (r *DeliveryNoteRepo) DeleteItem(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM delivery_note_items WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError("delete delivery note item", err)
	}
	return nil
}

// Delete borra el remito; los ítems caen por cascada.
func (r *DeliveryNoteRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM supplier_delivery_notes WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError("delete delivery note", err)
	}
	return nil
}

// ReceivedByPurchaseItem acumulado por línea de compra sobre remitos no anulados.
func (r *DeliveryNoteRepo) ReceivedByPurchaseItem(ctx context.Context, purchaseID string) (map[string]decimal.Decimal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT i.purchase_item_id, SUM(i.quantity)
		FROM delivery_note_items i
		JOIN supplier_delivery_notes n ON n.id = i.delivery_note_id
		JOIN purchase_items pi ON pi.id = i.purchase_item_id
		WHERE pi.purchase_id = $1 AND n.status <> $2
		GROUP BY i.purchase_item_id`, purchaseID, entity.DeliveryNoteStatusCancelled)
	if err != nil {
		return nil, domain.StorageError("sum received quantities", err)
	}
	defer rows.Close()
	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var lineID string
		var qty decimal.Decimal
		if err := rows.Scan(&lineID, &qty); err != nil {
			return nil, domain.StorageError("scan received quantity", err)
		}
		out[lineID] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("sum received quantities", err)
	}
	return out, nil
}

// CountByPurchase remitos (de cualquier estado) que referencian la compra.
func (r *DeliveryNoteRepo) CountByPurchase(ctx context.Context, purchaseID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM supplier_delivery_notes WHERE purchase_id = $1`, purchaseID).Scan(&n)
	if err != nil {
		return 0, domain.StorageError("count delivery notes", err)
	}
	return n, nil
}
