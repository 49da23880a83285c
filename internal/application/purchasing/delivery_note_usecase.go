package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/application/events"
	"github.com/jhoicas/Remitos-api/internal/application/numbering"
	"github.com/jhoicas/Remitos-api/internal/application/ports"
	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/ledger"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
	"github.com/jhoicas/Remitos-api/internal/domain/workflow"
)

// DeliveryNoteUseCase remitos de proveedor y conciliación contra las líneas de compra.
// Toda mutación termina en reconcile dentro de la misma transacción.
type DeliveryNoteUseCase struct {
	repos    repository.Repos
	txRunner ports.TxRunner
	events   *events.Dispatcher
	log      zerolog.Logger
}

// NewDeliveryNoteUseCase construye el caso de uso.
func NewDeliveryNoteUseCase(repos repository.Repos, txRunner ports.TxRunner, dispatcher *events.Dispatcher, log zerolog.Logger) *DeliveryNoteUseCase {
	return &DeliveryNoteUseCase{
		repos:    repos,
		txRunner: txRunner,
		events:   dispatcher,
		log:      log.With().Str("component", "delivery_notes").Logger(),
	}
}

// Create registra el remito, sus ítems y recalcula recibidos y estado en una sola transacción.
func (uc *DeliveryNoteUseCase) Create(ctx context.Context, actor *string, in dto.CreateDeliveryNoteRequest) (*dto.DeliveryNoteResponse, error) {
	if in.SupplierID == "" {
		return nil, domain.Invalid("supplier_id es requerido")
	}
	var bad []string
	for i, it := range in.Items {
		if !it.Quantity.IsPositive() || (it.ProductID == nil && it.PurchaseItemID == nil) {
			bad = append(bad, itemRef(i, ""))
		}
	}
	if len(bad) > 0 {
		return nil, domain.Invalid("ítems inválidos", bad...)
	}

	now := time.Now()
	note := &entity.SupplierDeliveryNote{
		ID:           uuid.New().String(),
		Number:       in.Number,
		SupplierID:   in.SupplierID,
		PurchaseID:   in.PurchaseID,
		DeliveryDate: now,
		Status:       entity.DeliveryNoteStatusPending,
		Notes:        in.Notes,
		CreatedBy:    actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.DeliveryDate != nil {
		note.DeliveryDate = *in.DeliveryDate
	}
	for _, it := range in.Items {
		note.Items = append(note.Items, &entity.DeliveryNoteItem{
			ID:             uuid.New().String(),
			DeliveryNoteID: note.ID,
			ProductID:      it.ProductID,
			PurchaseItemID: it.PurchaseItemID,
			Quantity:       it.Quantity,
			QualityChecked: it.QualityChecked,
			QualityNotes:   it.QualityNotes,
		})
	}

	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		supplier, err := r.Suppliers.GetByID(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if supplier == nil {
			return domain.NotFound("proveedor " + in.SupplierID)
		}

		var purchase *entity.PurchaseOrder
		if note.PurchaseID != nil {
			purchase, err = uc.lockPurchase(ctx, r, *note.PurchaseID)
			if err != nil {
				return err
			}
			if purchase.SupplierID != note.SupplierID {
				return domain.Invalid("el proveedor no coincide con el de la compra", purchase.ID)
			}
			received, err := r.DeliveryNotes.ReceivedByPurchaseItem(ctx, purchase.ID)
			if err != nil {
				return err
			}
			if err := validateNewItems(purchase, received, note.Items); err != nil {
				return err
			}
			if !purchase.AllowsPartialDelivery {
				if err := validateFullCoverage(purchase, received, note.Items); err != nil {
					return err
				}
			}
		} else {
			for _, it := range note.Items {
				if it.PurchaseItemID != nil {
					return domain.Invalid("ítem vinculado a una línea de compra en un remito sin compra", it.ID)
				}
			}
		}
		if err := uc.checkProducts(ctx, r, note.Items); err != nil {
			return err
		}

		if in.InvoiceID != nil {
			if err := checkInvoice(ctx, r, note, *in.InvoiceID); err != nil {
				return err
			}
			note.InvoiceID = in.InvoiceID
			note.MatchesInvoice = true
		}

		if note.Number == "" {
			note.Number, err = numbering.Next(ctx, r.Sequences, workflow.PrefixDeliveryNote, now)
			if err != nil {
				return err
			}
		}
		if err := r.DeliveryNotes.Create(ctx, note); err != nil {
			return err
		}
		return uc.reconcile(ctx, r, purchase, note)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("delivery_note_id", note.ID).Str("number", note.Number).
		Str("status", note.Status).Int("items", len(note.Items)).Msg("remito de proveedor registrado")
	uc.events.Publish(ports.EventDeliveryNoteCreated, toDeliveryNoteResponse(note))
	return toDeliveryNoteResponse(note), nil
}

// AddItem agrega un ítem a un remito existente.
func (uc *DeliveryNoteUseCase) AddItem(ctx context.Context, noteID string, in dto.DeliveryNoteItemRequest) (*dto.DeliveryNoteResponse, error) {
	if !in.Quantity.IsPositive() || (in.ProductID == nil && in.PurchaseItemID == nil) {
		return nil, domain.Invalid("ítem inválido")
	}
	var note *entity.SupplierDeliveryNote
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var purchase *entity.PurchaseOrder
		var err error
		note, purchase, err = uc.loadMutable(ctx, r, noteID)
		if err != nil {
			return err
		}
		item := &entity.DeliveryNoteItem{
			ID:             uuid.New().String(),
			DeliveryNoteID: note.ID,
			ProductID:      in.ProductID,
			PurchaseItemID: in.PurchaseItemID,
			Quantity:       in.Quantity,
			QualityChecked: in.QualityChecked,
			QualityNotes:   in.QualityNotes,
		}
		if purchase == nil && item.PurchaseItemID != nil {
			return domain.Invalid("ítem vinculado a una línea de compra en un remito sin compra", item.ID)
		}
		if purchase != nil {
			received, err := r.DeliveryNotes.ReceivedByPurchaseItem(ctx, purchase.ID)
			if err != nil {
				return err
			}
			items := []*entity.DeliveryNoteItem{item}
			if err := validateNewItems(purchase, received, items); err != nil {
				return err
			}
			if !purchase.AllowsPartialDelivery {
				if err := validateLinesLeftShort(purchase, received, items); err != nil {
					return err
				}
			}
		}
		if err := uc.checkProducts(ctx, r, []*entity.DeliveryNoteItem{item}); err != nil {
			return err
		}
		if err := r.DeliveryNotes.CreateItem(ctx, item); err != nil {
			return err
		}
		note.Items = append(note.Items, item)
		return uc.reconcile(ctx, r, purchase, note)
	})
	if err != nil {
		return nil, err
	}
	return toDeliveryNoteResponse(note), nil
}

// UpdateItem modifica cantidad o control de calidad de un ítem y reconcilia.
func (uc *DeliveryNoteUseCase) UpdateItem(ctx context.Context, noteID, itemID string, in dto.UpdateDeliveryNoteItemRequest) (*dto.DeliveryNoteResponse, error) {
	var note *entity.SupplierDeliveryNote
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var purchase *entity.PurchaseOrder
		var err error
		note, purchase, err = uc.loadMutable(ctx, r, noteID)
		if err != nil {
			return err
		}
		item := note.Item(itemID)
		if item == nil {
			return domain.NotFound("ítem " + itemID)
		}

		if in.Quantity.Set {
			if in.Quantity.Null || !in.Quantity.Value.IsPositive() {
				return domain.Invalid("la cantidad debe ser mayor a cero", item.ID)
			}
			if purchase != nil && item.PurchaseItemID != nil {
				received, err := r.DeliveryNotes.ReceivedByPurchaseItem(ctx, purchase.ID)
				if err != nil {
					return err
				}
				// sin el aporte actual del ítem
				lineID := *item.PurchaseItemID
				received[lineID] = received[lineID].Sub(item.Quantity)
				changed := &entity.DeliveryNoteItem{
					ID:             item.ID,
					PurchaseItemID: item.PurchaseItemID,
					Quantity:       in.Quantity.Value,
				}
				items := []*entity.DeliveryNoteItem{changed}
				if err := validateNewItems(purchase, received, items); err != nil {
					return err
				}
				if !purchase.AllowsPartialDelivery {
					if err := validateLinesLeftShort(purchase, received, items); err != nil {
						return err
					}
				}
			}
			item.Quantity = in.Quantity.Value
		}
		if in.QualityChecked.Set {
			if in.QualityChecked.Null {
				return domain.Invalid("quality_checked no puede ser null", item.ID)
			}
			item.QualityChecked = in.QualityChecked.Value
		}
		if in.QualityNotes.Set {
			item.QualityNotes = in.QualityNotes.Ptr()
		}

		if err := r.DeliveryNotes.UpdateItem(ctx, item); err != nil {
			return err
		}
		return uc.reconcile(ctx, r, purchase, note)
	})
	if err != nil {
		return nil, err
	}
	return toDeliveryNoteResponse(note), nil
}

// DeleteItem quita un ítem y reconcilia. Quitar nunca excede el pendiente, pero en una compra
// sin entregas parciales no puede dejar la línea corta; para eso se anula el remito.
func (uc *DeliveryNoteUseCase) DeleteItem(ctx context.Context, noteID, itemID string) (*dto.DeliveryNoteResponse, error) {
	var note *entity.SupplierDeliveryNote
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var purchase *entity.PurchaseOrder
		var err error
		note, purchase, err = uc.loadMutable(ctx, r, noteID)
		if err != nil {
			return err
		}
		item := note.Item(itemID)
		if item == nil {
			return domain.NotFound("ítem " + itemID)
		}
		if purchase != nil && !purchase.AllowsPartialDelivery && item.PurchaseItemID != nil {
			received, err := r.DeliveryNotes.ReceivedByPurchaseItem(ctx, purchase.ID)
			if err != nil {
				return err
			}
			lineID := *item.PurchaseItemID
			received[lineID] = received[lineID].Sub(item.Quantity)
			removed := []*entity.DeliveryNoteItem{{ID: item.ID, PurchaseItemID: item.PurchaseItemID, Quantity: decimal.Zero}}
			if err := validateLinesLeftShort(purchase, received, removed); err != nil {
				return err
			}
		}
		if err := r.DeliveryNotes.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		kept := note.Items[:0]
		for _, it := range note.Items {
			if it.ID != itemID {
				kept = append(kept, it)
			}
		}
		note.Items = kept
		return uc.reconcile(ctx, r, purchase, note)
	})
	if err != nil {
		return nil, err
	}
	return toDeliveryNoteResponse(note), nil
}

// Cancel anula el remito. Sus cantidades dejan de contar como recibidas.
func (uc *DeliveryNoteUseCase) Cancel(ctx context.Context, noteID string) (*dto.DeliveryNoteResponse, error) {
	var note *entity.SupplierDeliveryNote
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var purchase *entity.PurchaseOrder
		var err error
		note, purchase, err = uc.loadMutable(ctx, r, noteID)
		if err != nil {
			return err
		}
		note.Status = entity.DeliveryNoteStatusCancelled
		note.UpdatedAt = time.Now()
		if err := r.DeliveryNotes.Update(ctx, note); err != nil {
			return err
		}
		return uc.reconcile(ctx, r, purchase, note)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("delivery_note_id", note.ID).Msg("remito de proveedor anulado")
	return toDeliveryNoteResponse(note), nil
}

// Delete borra el remito. Solo pending o cancelled, sin factura vinculada ni ítems con control de calidad.
func (uc *DeliveryNoteUseCase) Delete(ctx context.Context, noteID string) error {
	return uc.txRunner.Run(ctx, func(r repository.Repos) error {
		note, err := r.DeliveryNotes.GetByID(ctx, noteID)
		if err != nil {
			return err
		}
		if note == nil {
			return domain.NotFound("remito de proveedor " + noteID)
		}
		if note.Status != entity.DeliveryNoteStatusPending && !note.Cancelled() {
			return domain.Conflict("solo se pueden eliminar remitos pendientes o anulados")
		}
		if note.InvoiceID != nil {
			return domain.Conflict("el remito tiene una factura vinculada")
		}
		for _, it := range note.Items {
			if it.QualityChecked {
				return domain.Conflict("el remito tiene ítems con control de calidad")
			}
		}
		var purchase *entity.PurchaseOrder
		if note.PurchaseID != nil {
			purchase, err = uc.lockPurchase(ctx, r, *note.PurchaseID)
			if err != nil {
				return err
			}
		}
		if err := r.DeliveryNotes.Delete(ctx, noteID); err != nil {
			return err
		}
		if purchase == nil {
			return nil
		}
		return uc.reconcile(ctx, r, purchase, nil)
	})
}

// LinkInvoice vincula una factura de proveedor. Deben coincidir proveedor y compra.
func (uc *DeliveryNoteUseCase) LinkInvoice(ctx context.Context, noteID, invoiceID string) (*dto.DeliveryNoteResponse, error) {
	var note *entity.SupplierDeliveryNote
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var err error
		note, err = r.DeliveryNotes.GetByID(ctx, noteID)
		if err != nil {
			return err
		}
		if note == nil {
			return domain.NotFound("remito de proveedor " + noteID)
		}
		if err := checkInvoice(ctx, r, note, invoiceID); err != nil {
			return err
		}
		note.InvoiceID = &invoiceID
		note.MatchesInvoice = true
		note.UpdatedAt = time.Now()
		return r.DeliveryNotes.Update(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	return toDeliveryNoteResponse(note), nil
}

// RecomputeStatus vuelve a derivar el estado del remito y los recibidos de la compra.
// Sin escrituras intermedias, dos llamadas seguidas devuelven el mismo estado.
func (uc *DeliveryNoteUseCase) RecomputeStatus(ctx context.Context, noteID string) (*dto.DeliveryNoteResponse, error) {
	var note *entity.SupplierDeliveryNote
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var err error
		note, err = r.DeliveryNotes.GetByID(ctx, noteID)
		if err != nil {
			return err
		}
		if note == nil {
			return domain.NotFound("remito de proveedor " + noteID)
		}
		var purchase *entity.PurchaseOrder
		if note.PurchaseID != nil {
			purchase, err = uc.lockPurchase(ctx, r, *note.PurchaseID)
			if err != nil {
				return err
			}
		}
		return uc.reconcile(ctx, r, purchase, note)
	})
	if err != nil {
		return nil, err
	}
	return toDeliveryNoteResponse(note), nil
}

// GetByID obtiene un remito de proveedor con sus ítems.
func (uc *DeliveryNoteUseCase) GetByID(ctx context.Context, id string) (*dto.DeliveryNoteResponse, error) {
	note, err := uc.repos.DeliveryNotes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, domain.NotFound("remito de proveedor " + id)
	}
	return toDeliveryNoteResponse(note), nil
}

// reconcile recalcula received_quantity de cada línea desde los ítems vigentes, deriva el estado
// de note (si no es nil ni está anulado) y ajusta el estado de la compra.
func (uc *DeliveryNoteUseCase) reconcile(ctx context.Context, r repository.Repos, purchase *entity.PurchaseOrder, note *entity.SupplierDeliveryNote) error {
	if purchase == nil {
		if note == nil || note.Cancelled() {
			return nil
		}
		status := entity.DeliveryNoteStatusPending
		if len(note.Items) > 0 {
			status = entity.DeliveryNoteStatusComplete
		}
		return uc.setNoteStatus(ctx, r, note, status)
	}

	received, err := r.DeliveryNotes.ReceivedByPurchaseItem(ctx, purchase.ID)
	if err != nil {
		return err
	}
	progress := make([]workflow.LineProgress, 0, len(purchase.Items))
	for _, line := range purchase.Items {
		qty := ledger.ClampReceived(received[line.ID], line.Quantity)
		if !qty.Equal(line.ReceivedQuantity) {
			if err := r.Purchases.UpdateItemReceived(ctx, line.ID, qty); err != nil {
				return err
			}
			line.ReceivedQuantity = qty
		}
		progress = append(progress, workflow.LineProgress{Ordered: line.Quantity, Received: qty})
	}

	if note != nil && !note.Cancelled() {
		if err := uc.setNoteStatus(ctx, r, note, workflow.DeliveryNoteStatus(progress)); err != nil {
			return err
		}
	}
	return uc.syncPurchaseStatus(ctx, r, purchase)
}

func (uc *DeliveryNoteUseCase) setNoteStatus(ctx context.Context, r repository.Repos, note *entity.SupplierDeliveryNote, status string) error {
	if note.Status == status {
		return nil
	}
	note.Status = status
	note.UpdatedAt = time.Now()
	return r.DeliveryNotes.Update(ctx, note)
}

// syncPurchaseStatus pasa la compra a received cuando todo está recibido y la devuelve a
// confirmed si una edición posterior deja pendiente.
func (uc *DeliveryNoteUseCase) syncPurchaseStatus(ctx context.Context, r repository.Repos, p *entity.PurchaseOrder) error {
	now := time.Now()
	full := p.FullyReceived()
	switch {
	case full && (p.Status == entity.PurchaseStatusPending || p.Status == entity.PurchaseStatusConfirmed):
		if p.ConfirmedAt == nil {
			p.ConfirmedAt = &now
		}
		p.Status = entity.PurchaseStatusReceived
		p.ReceivedAt = &now
	case !full && p.Status == entity.PurchaseStatusReceived:
		p.Status = entity.PurchaseStatusConfirmed
		p.ReceivedAt = nil
	default:
		return nil
	}
	p.UpdatedAt = now
	uc.log.Info().Str("purchase_id", p.ID).Str("status", p.Status).Msg("estado de compra conciliado")
	return r.Purchases.Update(ctx, p)
}

func (uc *DeliveryNoteUseCase) lockPurchase(ctx context.Context, r repository.Repos, id string) (*entity.PurchaseOrder, error) {
	p, err := r.Purchases.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("compra " + id)
	}
	if p.Status == entity.PurchaseStatusCancelled {
		return nil, domain.Conflict("la compra está cancelada")
	}
	return p, nil
}

// loadMutable carga el remito (no anulado) y su compra bloqueada, si tiene.
func (uc *DeliveryNoteUseCase) loadMutable(ctx context.Context, r repository.Repos, noteID string) (*entity.SupplierDeliveryNote, *entity.PurchaseOrder, error) {
	note, err := r.DeliveryNotes.GetByID(ctx, noteID)
	if err != nil {
		return nil, nil, err
	}
	if note == nil {
		return nil, nil, domain.NotFound("remito de proveedor " + noteID)
	}
	if note.Cancelled() {
		return nil, nil, domain.Conflict("el remito está anulado")
	}
	if note.PurchaseID == nil {
		return note, nil, nil
	}
	purchase, err := uc.lockPurchase(ctx, r, *note.PurchaseID)
	if err != nil {
		return nil, nil, err
	}
	return note, purchase, nil
}

func (uc *DeliveryNoteUseCase) checkProducts(ctx context.Context, r repository.Repos, items []*entity.DeliveryNoteItem) error {
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		ok, err := r.Products.Exists(ctx, *it.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFound("producto " + *it.ProductID)
		}
	}
	return nil
}

func checkInvoice(ctx context.Context, r repository.Repos, note *entity.SupplierDeliveryNote, invoiceID string) error {
	inv, err := r.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if inv == nil {
		return domain.NotFound("factura " + invoiceID)
	}
	if inv.SupplierID != note.SupplierID {
		return domain.Invalid("la factura es de otro proveedor", invoiceID)
	}
	if inv.PurchaseID != nil && (note.PurchaseID == nil || *inv.PurchaseID != *note.PurchaseID) {
		return domain.Invalid("la factura corresponde a otra compra", invoiceID)
	}
	return nil
}

// validateNewItems rechaza ítems que no pertenecen a la compra o que superan el pendiente.
// received es el acumulado vigente sin los ítems evaluados. Completa ProductID desde la línea.
func validateNewItems(p *entity.PurchaseOrder, received map[string]decimal.Decimal, items []*entity.DeliveryNoteItem) error {
	adding := make(map[string]decimal.Decimal)
	var bad []string
	for _, it := range items {
		if it.PurchaseItemID == nil {
			continue
		}
		line := p.Item(*it.PurchaseItemID)
		if line == nil {
			bad = append(bad, *it.PurchaseItemID)
			continue
		}
		if it.ProductID != nil && *it.ProductID != line.ProductID {
			bad = append(bad, line.ID)
			continue
		}
		if it.ProductID == nil {
			pid := line.ProductID
			it.ProductID = &pid
		}
		adding[line.ID] = adding[line.ID].Add(it.Quantity)
	}
	for _, line := range p.Items {
		add, ok := adding[line.ID]
		if !ok {
			continue
		}
		pending := ledger.PendingQuantity(line.Quantity, received[line.ID])
		if add.GreaterThan(pending) {
			bad = append(bad, line.ID)
		}
	}
	if len(bad) > 0 {
		return domain.Invalid("cantidad supera el pendiente de la línea de compra", bad...)
	}
	return nil
}

// validateFullCoverage exige que el remito cubra exactamente el pendiente de cada línea.
func validateFullCoverage(p *entity.PurchaseOrder, received map[string]decimal.Decimal, items []*entity.DeliveryNoteItem) error {
	covered := sumByLine(items)
	var bad []string
	for _, line := range p.Items {
		pending := ledger.PendingQuantity(line.Quantity, received[line.ID])
		if !covered[line.ID].Equal(pending) {
			bad = append(bad, line.ID)
		}
	}
	if len(bad) > 0 {
		return domain.Invalid("la compra no admite entregas parciales", bad...)
	}
	return nil
}

// validateLinesLeftShort rechaza cambios que dejan con pendiente las líneas tocadas.
func validateLinesLeftShort(p *entity.PurchaseOrder, received map[string]decimal.Decimal, items []*entity.DeliveryNoteItem) error {
	var bad []string
	for lineID, qty := range sumByLine(items) {
		line := p.Item(lineID)
		if line == nil {
			continue
		}
		if received[lineID].Add(qty).LessThan(line.Quantity) {
			bad = append(bad, lineID)
		}
	}
	if len(bad) > 0 {
		return domain.Invalid("la compra no admite entregas parciales", bad...)
	}
	return nil
}

func sumByLine(items []*entity.DeliveryNoteItem) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, it := range items {
		if it.PurchaseItemID != nil {
			out[*it.PurchaseItemID] = out[*it.PurchaseItemID].Add(it.Quantity)
		}
	}
	return out
}
