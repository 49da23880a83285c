package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

var (
	_ repository.RemitoRepository       = (*RemitoRepo)(nil)
	_ repository.TrazabilidadRepository = (*TrazabilidadRepo)(nil)
)

const remitoColumns = `id, number, order_id, client_id, remito_type, status, delivery_address, delivery_contact,
	delivery_phone, transport_company, tracking_number, transport_cost, generation_date, dispatch_date,
	delivery_date, total_products, total_quantity, total_value, signature_name, signature_document, photo_url,
	notes, created_by, updated_at`

// RemitoRepo remitos de salida sobre PostgreSQL.
type RemitoRepo struct {
	q Querier
}

// NewRemitoRepository construye el repositorio. Pasar pool o tx.
func NewRemitoRepository(q Querier) *RemitoRepo {
	return &RemitoRepo{q: q}
}

// Create inserta cabecera e ítems. Un segundo remito vigente del mismo pedido es ErrDuplicate.
func (r *RemitoRepo) Create(ctx context.Context, rm *entity.OutboundRemito) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO outbound_remitos (`+remitoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		rm.ID, rm.Number, rm.OrderID, rm.ClientID, rm.RemitoType, rm.Status, rm.DeliveryAddress, rm.DeliveryContact,
		rm.DeliveryPhone, rm.TransportCompany, rm.TrackingNumber, rm.TransportCost, rm.GenerationDate, rm.DispatchDate,
		rm.DeliveryDate, rm.TotalProducts, rm.TotalQuantity, rm.TotalValue, rm.SignatureName, rm.SignatureDocument,
		rm.PhotoURL, rm.Notes, rm.CreatedBy, rm.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: remito para pedido %s", domain.ErrDuplicate, rm.OrderID)
		}
		return domain.StorageError("insert remito", err)
	}
	for i, it := range rm.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO remito_items (id, remito_id, position, product_id, quantity, unit_price, total_price, status,
				prepared_quantity, delivered_quantity, returned_quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			it.ID, rm.ID, i, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice, it.Status,
			it.PreparedQuantity, it.DeliveredQuantity, it.ReturnedQuantity,
		)
		if err != nil {
			return domain.StorageError("insert remito item", err)
		}
	}
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *RemitoRepo) GetByID(ctx context.Context, id string) (*entity.OutboundRemito, error) {
	return r.getBy(ctx, `id = $1`, id, false)
}

// GetForUpdate bloquea cabecera e ítems.
func (r *RemitoRepo) GetForUpdate(ctx context.Context, id string) (*entity.OutboundRemito, error) {
	return r.getBy(ctx, `id = $1`, id, true)
}

// GetByOrderID remito vigente (no anulado) del pedido, si existe.
func (r *RemitoRepo) GetByOrderID(ctx context.Context, orderID string) (*entity.OutboundRemito, error) {
	return r.getBy(ctx, `order_id = $1 AND status <> '`+entity.RemitoCancelado+`'`, orderID, false)
}

func (r *RemitoRepo) getBy(ctx context.Context, where, value string, lock bool) (*entity.OutboundRemito, error) {
	query := `SELECT ` + remitoColumns + ` FROM outbound_remitos WHERE ` + where
	if lock {
		query += ` FOR UPDATE`
	}
	rm, err := scanRemito(r.q.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageError("get remito", err)
	}
	items, err := r.loadItems(ctx, []string{rm.ID}, lock)
	if err != nil {
		return nil, err
	}
	rm.Items = items[rm.ID]
	return rm, nil
}

func (r *RemitoRepo) loadItems(ctx context.Context, remitoIDs []string, lock bool) (map[string][]*entity.RemitoItem, error) {
	query := `
		SELECT id, remito_id, product_id, quantity, unit_price, total_price, status,
			prepared_quantity, delivered_quantity, returned_quantity
		FROM remito_items WHERE remito_id = ANY($1) ORDER BY remito_id, position`
	if lock {
		query += ` FOR UPDATE`
	}
	rows, err := r.q.Query(ctx, query, remitoIDs)
	if err != nil {
		return nil, domain.StorageError("list remito items", err)
	}
	defer rows.Close()
	out := make(map[string][]*entity.RemitoItem)
	for rows.Next() {
		var it entity.RemitoItem
		if err := rows.Scan(&it.ID, &it.RemitoID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice,
			&it.Status, &it.PreparedQuantity, &it.DeliveredQuantity, &it.ReturnedQuantity); err != nil {
			return nil, domain.StorageError("scan remito item", err)
		}
		out[it.RemitoID] = append(out[it.RemitoID], &it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list remito items", err)
	}
	return out, nil
}

// Update actualiza la cabecera.
func (r *RemitoRepo) Update(ctx context.Context, rm *entity.OutboundRemito) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE outbound_remitos SET status = $2, delivery_address = $3, delivery_contact = $4, delivery_phone = $5,
			transport_company = $6, tracking_number = $7, transport_cost = $8, dispatch_date = $9, delivery_date = $10,
			total_products = $11, total_quantity = $12, total_value = $13, signature_name = $14,
			signature_document = $15, photo_url = $16, notes = $17, updated_at = $18
		WHERE id = $1`,
		rm.ID, rm.Status, rm.DeliveryAddress, rm.DeliveryContact, rm.DeliveryPhone, rm.TransportCompany,
		rm.TrackingNumber, rm.TransportCost, rm.DispatchDate, rm.DeliveryDate, rm.TotalProducts, rm.TotalQuantity,
		rm.TotalValue, rm.SignatureName, rm.SignatureDocument, rm.PhotoURL, rm.Notes, rm.UpdatedAt,
	)
	if err != nil {
		return domain.StorageError("update remito", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("remito " + rm.ID)
	}
	return nil
}

// UpdateItem actualiza estado y cantidades de un ítem.
func (r *RemitoRepo) UpdateItem(ctx context.Context, it *entity.RemitoItem) error {
	_, err := r.q.Exec(ctx, `
		UPDATE remito_items SET status = $2, prepared_quantity = $3, delivered_quantity = $4, returned_quantity = $5
		WHERE id = $1`,
		it.ID, it.Status, it.PreparedQuantity, it.DeliveredQuantity, it.ReturnedQuantity,
	)
	if err != nil {
		return domain.StorageError("update remito item", err)
	}
	return nil
}

// Delete borra el remito; ítems y trazabilidad caen por cascada.
func (r *RemitoRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM outbound_remitos WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError("delete remito", err)
	}
	return nil
}

// List remitos recientes primero.
func (r *RemitoRepo) List(ctx context.Context, f repository.RemitoFilter) ([]*entity.OutboundRemito, error) {
	var where []string
	var args []any
	if f.OrderID != "" {
		args = append(args, f.OrderID)
		where = append(where, fmt.Sprintf("order_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + remitoColumns + ` FROM outbound_remitos`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY generation_date DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.StorageError("list remitos", err)
	}
	var list []*entity.OutboundRemito
	for rows.Next() {
		rm, err := scanRemito(rows)
		if err != nil {
			rows.Close()
			return nil, domain.StorageError("scan remito", err)
		}
		list = append(list, rm)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list remitos", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, rm := range list {
		ids = append(ids, rm.ID)
	}
	items, err := r.loadItems(ctx, ids, false)
	if err != nil {
		return nil, err
	}
	for _, rm := range list {
		rm.Items = items[rm.ID]
	}
	return list, nil
}

func scanRemito(row pgx.Row) (*entity.OutboundRemito, error) {
	var rm entity.OutboundRemito
	err := row.Scan(&rm.ID, &rm.Number, &rm.OrderID, &rm.ClientID, &rm.RemitoType, &rm.Status, &rm.DeliveryAddress,
		&rm.DeliveryContact, &rm.DeliveryPhone, &rm.TransportCompany, &rm.TrackingNumber, &rm.TransportCost,
		&rm.GenerationDate, &rm.DispatchDate, &rm.DeliveryDate, &rm.TotalProducts, &rm.TotalQuantity, &rm.TotalValue,
		&rm.SignatureName, &rm.SignatureDocument, &rm.PhotoURL, &rm.Notes, &rm.CreatedBy, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

// TrazabilidadRepo bitácora de etapas sobre PostgreSQL.
type TrazabilidadRepo struct {
	q Querier
}

// NewTrazabilidadRepository construye el repositorio.
func NewTrazabilidadRepository(q Querier) *TrazabilidadRepo {
	return &TrazabilidadRepo{q: q}
}

// Append agrega una entrada.
func (r *TrazabilidadRepo) Append(ctx context.Context, e *entity.TrazabilidadEntry) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO trazabilidad (id, remito_id, product_id, stage, location, responsible_user_id, responsible_name,
			stage_start, stage_end, temperature, humidity, quality_notes, is_automatic, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.RemitoID, e.ProductID, e.Stage, e.Location, e.ResponsibleUserID, e.ResponsibleName,
		e.StageStart, e.StageEnd, e.Temperature, e.Humidity, e.QualityNotes, e.IsAutomatic, e.Notes,
	)
	if err != nil {
		return domain.StorageError("insert trazabilidad", err)
	}
	return nil
}

// CloseOpen cierra las etapas abiertas del remito.
func (r *TrazabilidadRepo) CloseOpen(ctx context.Context, remitoID string, at time.Time) error {
	_, err := r.q.Exec(ctx,
		`UPDATE trazabilidad SET stage_end = $2 WHERE remito_id = $1 AND stage_end IS NULL`, remitoID, at)
	if err != nil {
		return domain.StorageError("close trazabilidad", err)
	}
	return nil
}

// ListByRemito en orden cronológico.
func (r *TrazabilidadRepo) ListByRemito(ctx context.Context, remitoID string) ([]*entity.TrazabilidadEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, remito_id, product_id, stage, location, responsible_user_id, responsible_name, stage_start,
			stage_end, temperature, humidity, quality_notes, is_automatic, notes
		FROM trazabilidad WHERE remito_id = $1 ORDER BY stage_start, id`, remitoID)
	if err != nil {
		return nil, domain.StorageError("list trazabilidad", err)
	}
	defer rows.Close()
	var list []*entity.TrazabilidadEntry
	for rows.Next() {
		var e entity.TrazabilidadEntry
		if err := rows.Scan(&e.ID, &e.RemitoID, &e.ProductID, &e.Stage, &e.Location, &e.ResponsibleUserID,
			&e.ResponsibleName, &e.StageStart, &e.StageEnd, &e.Temperature, &e.Humidity, &e.QualityNotes,
			&e.IsAutomatic, &e.Notes); err != nil {
			return nil, domain.StorageError("scan trazabilidad", err)
		}
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list trazabilidad", err)
	}
	return list, nil
}

// DeleteByRemito borra la bitácora del remito.
func (r *TrazabilidadRepo) DeleteByRemito(ctx context.Context, remitoID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM trazabilidad WHERE remito_id = $1`, remitoID)
	if err != nil {
		return domain.StorageError("delete trazabilidad", err)
	}
	return nil
}
