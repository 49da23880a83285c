package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

var (
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
	_ repository.ClientRepository   = (*ClientRepo)(nil)
	_ repository.SequenceRepository = (*SequenceRepo)(nil)
)

// SupplierRepo lectura de proveedores.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el repositorio.
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// GetByID devuelve (nil, nil) si no existe.
func (r *SupplierRepo) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.q.QueryRow(ctx, `
		SELECT id, name, tax_id, email, phone, created_at, updated_at
		FROM suppliers WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.TaxID, &s.Email, &s.Phone, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageError("get supplier", err)
	}
	return &s, nil
}

// ClientRepo lectura de clientes.
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el repositorio.
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// GetByID devuelve (nil, nil) si no existe.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	var c entity.Client
	err := r.q.QueryRow(ctx, `
		SELECT id, name, tax_id, email, phone, address, created_at, updated_at
		FROM clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.TaxID, &c.Email, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.StorageError("get client", err)
	}
	return &c, nil
}

// SequenceRepo numeración por prefijo y año sobre document_sequences.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el repositorio.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa de forma atómica. Dentro de una tx el número queda reservado hasta el commit.
func (r *SequenceRepo) Next(ctx context.Context, prefix string, year int) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_sequences (prefix, year, last_value) VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`, prefix, year,
	).Scan(&n)
	if err != nil {
		return 0, domain.StorageError("next sequence", err)
	}
	return n, nil
}
