package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

// PurchaseFilter filtros de listado de compras.
type PurchaseFilter struct {
	SupplierID string
	Status     string
	Limit      int
	Offset     int
}

// PurchaseRepository persistencia de órdenes de compra y sus líneas.
type PurchaseRepository interface {
	// Create inserta cabecera y líneas.
	Create(ctx context.Context, p *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// GetForUpdate igual que GetByID pero bloquea cabecera y líneas hasta el fin de la tx.
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// Update actualiza solo la cabecera.
	Update(ctx context.Context, p *entity.PurchaseOrder) error
	UpdateItemReceived(ctx context.Context, itemID string, received decimal.Decimal) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f PurchaseFilter) ([]*entity.PurchaseOrder, error)
}

// SupplierInvoiceRepository lectura de facturas de proveedor.
type SupplierInvoiceRepository interface {
	GetByID(ctx context.Context, id string) (*entity.SupplierInvoice, error)
	CountByPurchase(ctx context.Context, purchaseID string) (int, error)
}
