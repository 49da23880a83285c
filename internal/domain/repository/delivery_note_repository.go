package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

// DeliveryNoteRepository persistencia de remitos de proveedor.
type DeliveryNoteRepository interface {
	Create(ctx context.Context, n *entity.SupplierDeliveryNote) error
	GetByID(ctx context.Context, id string) (*entity.SupplierDeliveryNote, error)
	// Update actualiza la cabecera (estado, factura, notas).
	Update(ctx context.Context, n *entity.SupplierDeliveryNote) error
	CreateItem(ctx context.Context, item *entity.DeliveryNoteItem) error
	UpdateItem(ctx context.Context, item *entity.DeliveryNoteItem) error
	DeleteItem(ctx context.Context, id string) error
	// Delete borra el remito y sus ítems; nunca toca las líneas de compra referenciadas.
	Delete(ctx context.Context, id string) error
	// ReceivedByPurchaseItem suma las cantidades de ítems vinculados a cada línea de la compra,
	// ignorando remitos anulados. Clave: purchase_item_id.
	ReceivedByPurchaseItem(ctx context.Context, purchaseID string) (map[string]decimal.Decimal, error)
	CountByPurchase(ctx context.Context, purchaseID string) (int, error)
}
