package purchasing

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/application/numbering"
	"github.com/jhoicas/Remitos-api/internal/application/ports"
	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/ledger"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
	"github.com/jhoicas/Remitos-api/internal/domain/workflow"
)

// PurchaseUseCase órdenes de compra a proveedor.
type PurchaseUseCase struct {
	repos    repository.Repos
	txRunner ports.TxRunner
	log      zerolog.Logger
}

// NewPurchaseUseCase construye el caso de uso. repos se usa para lecturas fuera de transacción.
func NewPurchaseUseCase(repos repository.Repos, txRunner ports.TxRunner, log zerolog.Logger) *PurchaseUseCase {
	return &PurchaseUseCase{
		repos:    repos,
		txRunner: txRunner,
		log:      log.With().Str("component", "purchases").Logger(),
	}
}

// Create crea la compra en estado pending con received_quantity = 0 en todas sus líneas.
func (uc *PurchaseUseCase) Create(ctx context.Context, actor *string, in dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	if in.SupplierID == "" || !entity.IsValidDebtType(in.DebtType) {
		return nil, domain.Invalid("proveedor y tipo de deuda son requeridos")
	}
	if len(in.Items) == 0 {
		return nil, domain.Invalid("la compra debe tener al menos una línea")
	}
	var bad []string
	for i, it := range in.Items {
		if it.ProductID == "" || !it.Quantity.IsPositive() || it.UnitPrice.IsNegative() || it.UnitCost.IsNegative() {
			bad = append(bad, itemRef(i, it.ProductID))
		}
	}
	if len(bad) > 0 {
		return nil, domain.Invalid("líneas inválidas", bad...)
	}

	supplier, err := uc.repos.Suppliers.GetByID(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, domain.NotFound("proveedor " + in.SupplierID)
	}
	for _, it := range in.Items {
		ok, err := uc.repos.Products.Exists(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NotFound("producto " + it.ProductID)
		}
	}

	now := time.Now()
	p := &entity.PurchaseOrder{
		ID:                    uuid.New().String(),
		SupplierID:            in.SupplierID,
		Status:                entity.PurchaseStatusPending,
		DebtType:              in.DebtType,
		AllowsPartialDelivery: in.AllowsPartialDelivery,
		Notes:                 in.Notes,
		CreatedBy:             actor,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	lines := make([]ledger.Line, 0, len(in.Items))
	for _, it := range in.Items {
		p.Items = append(p.Items, &entity.PurchaseLineItem{
			ID:               uuid.New().String(),
			PurchaseID:       p.ID,
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			ReceivedQuantity: decimal.Zero,
			UnitPrice:        it.UnitPrice,
			UnitCost:         it.UnitCost,
			TotalPrice:       ledger.LineTotal(it.Quantity, it.UnitPrice),
		})
		lines = append(lines, ledger.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	p.TotalAmount = ledger.AggregateTotal(lines)
	p.SplitAmounts()

	err = uc.txRunner.Run(ctx, func(r repository.Repos) error {
		number, err := numbering.Next(ctx, r.Sequences, workflow.PrefixPurchase, now)
		if err != nil {
			return err
		}
		p.Number = number
		return r.Purchases.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("purchase_id", p.ID).Str("number", p.Number).
		Str("total", p.TotalAmount.String()).Msg("compra creada")
	return toPurchaseResponse(p), nil
}

// Update aplica solo los campos presentes en in. Null explícito limpia los campos anulables.
func (uc *PurchaseUseCase) Update(ctx context.Context, id string, in dto.UpdatePurchaseRequest) (*dto.PurchaseResponse, error) {
	var p *entity.PurchaseOrder
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var err error
		p, err = r.Purchases.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NotFound("compra " + id)
		}
		now := time.Now()

		if in.Status.Set {
			if in.Status.Null {
				return domain.Invalid("status no puede ser null")
			}
			if in.Status.Value != p.Status {
				if err := workflow.ValidatePurchaseTransition(p.Status, in.Status.Value); err != nil {
					return err
				}
				p.Status = in.Status.Value
				switch p.Status {
				case entity.PurchaseStatusConfirmed:
					p.ConfirmedAt = &now
				case entity.PurchaseStatusReceived:
					p.ReceivedAt = &now
				}
			}
		}
		if in.AllowsPartialDelivery.Set {
			if in.AllowsPartialDelivery.Null {
				return domain.Invalid("allows_partial_delivery no puede ser null")
			}
			p.AllowsPartialDelivery = in.AllowsPartialDelivery.Value
		}
		if in.Notes.Set {
			p.Notes = in.Notes.Ptr()
		}

		amountsGiven := in.CommitmentAmount.Set || in.DebtAmount.Set
		if in.DebtType.Set {
			if in.DebtType.Null || !entity.IsValidDebtType(in.DebtType.Value) {
				return domain.Invalid("debt_type inválido")
			}
			p.DebtType = in.DebtType.Value
			if !amountsGiven {
				p.SplitAmounts()
			}
		}
		if amountsGiven {
			if in.CommitmentAmount.Null || in.DebtAmount.Null {
				return domain.Invalid("los importes no pueden ser null")
			}
			if in.CommitmentAmount.Set {
				p.CommitmentAmount = in.CommitmentAmount.Value
			}
			if in.DebtAmount.Set {
				p.DebtAmount = in.DebtAmount.Value
			}
		}
		if p.CommitmentAmount.IsNegative() || p.DebtAmount.IsNegative() || !p.AmountsBalanced() {
			return domain.Invalid("debt_amount + commitment_amount debe ser igual a total_amount",
				"total="+p.TotalAmount.String())
		}

		p.UpdatedAt = now
		return r.Purchases.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseResponse(p), nil
}

// Delete borra la compra si ningún remito ni factura de proveedor la referencia.
func (uc *PurchaseUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(r repository.Repos) error {
		p, err := r.Purchases.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NotFound("compra " + id)
		}
		notes, err := r.DeliveryNotes.CountByPurchase(ctx, id)
		if err != nil {
			return err
		}
		if notes > 0 {
			return domain.Conflict("la compra tiene remitos de proveedor asociados")
		}
		invoices, err := r.Invoices.CountByPurchase(ctx, id)
		if err != nil {
			return err
		}
		if invoices > 0 {
			return domain.Conflict("la compra tiene facturas asociadas")
		}
		if err := r.Purchases.Delete(ctx, id); err != nil {
			return err
		}
		uc.log.Info().Str("purchase_id", id).Msg("compra eliminada")
		return nil
	})
}

// GetByID obtiene una compra con sus líneas.
func (uc *PurchaseUseCase) GetByID(ctx context.Context, id string) (*dto.PurchaseResponse, error) {
	p, err := uc.repos.Purchases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("compra " + id)
	}
	return toPurchaseResponse(p), nil
}

// List lista compras con filtros opcionales por proveedor y estado.
func (uc *PurchaseUseCase) List(ctx context.Context, supplierID, status string, page dto.PageRequest) (*dto.PurchaseListResponse, error) {
	page.DefaultPage()
	list, err := uc.repos.Purchases.List(ctx, repository.PurchaseFilter{
		SupplierID: supplierID,
		Status:     status,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.PurchaseListResponse{
		Items: make([]dto.PurchaseResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, p := range list {
		out.Items = append(out.Items, *toPurchaseResponse(p))
	}
	return out, nil
}

func itemRef(i int, id string) string {
	if id == "" {
		return "items[" + strconv.Itoa(i) + "]"
	}
	return "items[" + strconv.Itoa(i) + "]:" + id
}
