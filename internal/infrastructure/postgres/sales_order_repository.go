package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

const orderColumns = `id, number, external_order_id, external_order_number, client_id, status, stock_reserved,
	remito_status, source, delivery_address, delivery_contact, delivery_phone, transport_company, transport_cost,
	notes, total_amount, created_by, created_at, updated_at`

// SalesOrderRepo pedidos de venta sobre PostgreSQL.
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el repositorio. Pasar pool o tx.
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

// Create inserta cabecera y líneas. El índice parcial sobre external_order_id resuelve la carrera
// entre dos importaciones del mismo pedido externo.
func (r *SalesOrderRepo) Create(ctx context.Context, o *entity.SalesOrder) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		o.ID, o.Number, o.ExternalOrderID, o.ExternalOrderNumber, o.ClientID, o.Status, o.StockReserved,
		o.RemitoStatus, o.Source, o.DeliveryAddress, o.DeliveryContact, o.DeliveryPhone, o.TransportCompany,
		o.TransportCost, o.Notes, o.TotalAmount, o.CreatedBy, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: pedido %s (%s)", domain.ErrDuplicate, o.Number, constraintName(err))
		}
		return domain.StorageError("insert sales order", err)
	}
	for i, it := range o.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, quantity, unit_price, total_price, batch_number, stock_reserved)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, o.ID, i, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice, it.BatchNumber, it.StockReserved,
		)
		if err != nil {
			return domain.StorageError("insert order item", err)
		}
	}
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *SalesOrderRepo) GetByID(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return r.getBy(ctx, "id", id, false)
}

// GetForUpdate bloquea cabecera y líneas.
func (r *SalesOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return r.getBy(ctx, "id", id, true)
}

// GetByExternalID busca por el identificador del canal externo.
func (r *SalesOrderRepo) GetByExternalID(ctx context.Context, externalID string) (*entity.SalesOrder, error) {
	return r.getBy(ctx, "external_order_id", externalID, false)
}

// GetByExternalNumber busca por el número visible del canal externo.
func (r *SalesOrderRepo) GetByExternalNumber(ctx context.Context, externalNumber string) (*entity.SalesOrder, error) {
	return r.getBy(ctx, "external_order_number", externalNumber, false)
}

// getBy column nunca proviene del usuario.
func (r *SalesOrderRepo) getBy(ctx context.Context, column, value string, lock bool) (*entity.SalesOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM sales_orders WHERE ` + column + ` = $1 ORDER BY created_at LIMIT 1`
	if lock {
		query += ` FOR UPDATE`
	}
	o, err := scanOrder(r.q.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageError("get sales order", err)
	}
	items, err := r.loadItems(ctx, []string{o.ID}, lock)
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *SalesOrderRepo) loadItems(ctx context.Context, orderIDs []string, lock bool) (map[string][]*entity.OrderLineItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, total_price, batch_number, stock_reserved
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`
	if lock {
		query += ` FOR UPDATE`
	}
	rows, err := r.q.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, domain.StorageError("list order items", err)
	}
	defer rows.Close()
	out := make(map[string][]*entity.OrderLineItem)
	for rows.Next() {
		var it entity.OrderLineItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice,
			&it.BatchNumber, &it.StockReserved); err != nil {
			return nil, domain.StorageError("scan order item", err)
		}
		out[it.OrderID] = append(out[it.OrderID], &it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list order items", err)
	}
	return out, nil
}

// Update actualiza la cabecera.
func (r *SalesOrderRepo) Update(ctx context.Context, o *entity.SalesOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales_orders SET status = $2, stock_reserved = $3, remito_status = $4, delivery_address = $5,
			delivery_contact = $6, delivery_phone = $7, transport_company = $8, transport_cost = $9, notes = $10,
			total_amount = $11, updated_at = $12
		WHERE id = $1`,
		o.ID, o.Status, o.StockReserved, o.RemitoStatus, o.DeliveryAddress, o.DeliveryContact, o.DeliveryPhone,
		o.TransportCompany, o.TransportCost, o.Notes, o.TotalAmount, o.UpdatedAt,
	)
	if err != nil {
		return domain.StorageError("update sales order", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("pedido " + o.ID)
	}
	return nil
}

// UpdateItemReserved marca o desmarca la reserva de una línea.
func (r *SalesOrderRepo) UpdateItemReserved(ctx context.Context, itemID string, reserved bool) error {
	_, err := r.q.Exec(ctx, `UPDATE order_items SET stock_reserved = $2 WHERE id = $1`, itemID, reserved)
	if err != nil {
		return domain.StorageError("update order item reserved", err)
	}
	return nil
}

// Delete borra el pedido; las líneas caen por cascada.
func (r *SalesOrderRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM sales_orders WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError("delete sales order", err)
	}
	return nil
}

// List pedidos recientes primero.
func (r *SalesOrderRepo) List(ctx context.Context, f repository.OrderFilter) ([]*entity.SalesOrder, error) {
	var where []string
	var args []any
	if f.ClientID != "" {
		args = append(args, f.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + orderColumns + ` FROM sales_orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.StorageError("list sales orders", err)
	}
	var list []*entity.SalesOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, domain.StorageError("scan sales order", err)
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list sales orders", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, o := range list {
		ids = append(ids, o.ID)
	}
	items, err := r.loadItems(ctx, ids, false)
	if err != nil {
		return nil, err
	}
	for _, o := range list {
		o.Items = items[o.ID]
	}
	return list, nil
}

func scanOrder(row pgx.Row) (*entity.SalesOrder, error) {
	var o entity.SalesOrder
	err := row.Scan(&o.ID, &o.Number, &o.ExternalOrderID, &o.ExternalOrderNumber, &o.ClientID, &o.Status,
		&o.StockReserved, &o.RemitoStatus, &o.Source, &o.DeliveryAddress, &o.DeliveryContact, &o.DeliveryPhone,
		&o.TransportCompany, &o.TransportCost, &o.Notes, &o.TotalAmount, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
