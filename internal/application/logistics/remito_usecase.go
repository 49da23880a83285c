// Package logistics remitos de salida hacia clientes y su trazabilidad por etapa.
package logistics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
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

// RemitoUseCase remitos de salida.
type RemitoUseCase struct {
	repos     repository.Repos
	txRunner  ports.TxRunner
	events    *events.Dispatcher
	generator RemitoPDFGenerator
	log       zerolog.Logger
}

// NewRemitoUseCase construye el caso de uso. generator puede ser nil si no se expone el PDF.
func NewRemitoUseCase(repos repository.Repos, txRunner ports.TxRunner, dispatcher *events.Dispatcher, generator RemitoPDFGenerator, log zerolog.Logger) *RemitoUseCase {
	return &RemitoUseCase{
		repos:     repos,
		txRunner:  txRunner,
		events:    dispatcher,
		generator: generator,
		log:       log.With().Str("component", "remitos").Logger(),
	}
}

// Create emite un remito para un pedido con stock reservado.
func (uc *RemitoUseCase) Create(ctx context.Context, actor *string, in dto.CreateRemitoRequest) (*dto.RemitoResponse, error) {
	if in.OrderID == "" || in.ClientID == "" || len(in.Items) == 0 {
		return nil, domain.Invalid("pedido, cliente y al menos un ítem son requeridos")
	}
	if in.RemitoType == "" {
		in.RemitoType = entity.RemitoTypeEntregaCliente
	}
	if !entity.IsValidRemitoType(in.RemitoType) {
		return nil, domain.Invalid("remito_type inválido", in.RemitoType)
	}
	if in.TransportCost.IsNegative() {
		return nil, domain.Invalid("transport_cost no puede ser negativo")
	}
	var bad []string
	for i, it := range in.Items {
		if it.ProductID == "" || !it.Quantity.IsPositive() || it.UnitPrice.IsNegative() {
			bad = append(bad, "items["+strconv.Itoa(i)+"]")
		}
	}
	if len(bad) > 0 {
		return nil, domain.Invalid("ítems inválidos", bad...)
	}

	var rem *entity.OutboundRemito
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		o, err := r.Orders.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.NotFound("pedido " + in.OrderID)
		}
		if !workflow.RemitoEligibleOrderStatus(o.Status) {
			return domain.Conflict("el pedido está en estado " + o.Status)
		}
		if !o.StockReserved {
			return domain.Invalid("el pedido no tiene stock reservado", o.ID)
		}
		client, err := r.Clients.GetByID(ctx, in.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return domain.NotFound("cliente " + in.ClientID)
		}
		if client.ID != o.ClientID {
			return domain.Invalid("el cliente no coincide con el del pedido", in.ClientID)
		}
		if err := ensureNoRemito(ctx, r, o.ID); err != nil {
			return err
		}
		if err := checkAvailability(ctx, r, o, in.Items); err != nil {
			return err
		}

		now := time.Now()
		rem = &entity.OutboundRemito{
			ID:               uuid.New().String(),
			OrderID:          o.ID,
			ClientID:         o.ClientID,
			RemitoType:       in.RemitoType,
			Status:           entity.RemitoGenerado,
			DeliveryAddress:  in.DeliveryAddress,
			DeliveryContact:  in.DeliveryContact,
			DeliveryPhone:    in.DeliveryPhone,
			TransportCompany: in.TransportCompany,
			TrackingNumber:   in.TrackingNumber,
			TransportCost:    in.TransportCost,
			GenerationDate:   now,
			Notes:            in.Notes,
			CreatedBy:        actor,
			UpdatedAt:        now,
		}
		for _, it := range in.Items {
			rem.Items = append(rem.Items, newItem(rem.ID, it.ProductID, it.Quantity, it.UnitPrice))
		}
		return uc.insert(ctx, r, actor, o, rem)
	})
	if err != nil {
		return nil, err
	}
	uc.created(rem)
	return toRemitoResponse(rem), nil
}

// GenerateFromOrder emite el remito copiando líneas y datos de entrega del pedido.
// Es el camino usado por la orquestación externa.
func (uc *RemitoUseCase) GenerateFromOrder(ctx context.Context, actor *string, orderID string) (*dto.RemitoResponse, error) {
	var rem *entity.OutboundRemito
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		o, err := r.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.NotFound("pedido " + orderID)
		}
		if err := ensureNoRemito(ctx, r, o.ID); err != nil {
			return err
		}
		if workflow.IsTerminalOrderStatus(o.Status) {
			return domain.Conflict("el pedido está en estado " + o.Status)
		}
		if !o.FullyReserved() {
			var pending []string
			for _, it := range o.Items {
				if !it.StockReserved {
					pending = append(pending, it.ID)
				}
			}
			return domain.Invalid("la reserva de stock del pedido está incompleta", pending...)
		}

		now := time.Now()
		rem = &entity.OutboundRemito{
			ID:               uuid.New().String(),
			OrderID:          o.ID,
			ClientID:         o.ClientID,
			RemitoType:       entity.RemitoTypeEntregaCliente,
			Status:           entity.RemitoGenerado,
			DeliveryAddress:  o.DeliveryAddress,
			DeliveryContact:  o.DeliveryContact,
			DeliveryPhone:    o.DeliveryPhone,
			TransportCompany: o.TransportCompany,
			TransportCost:    o.TransportCost,
			GenerationDate:   now,
			CreatedBy:        actor,
			UpdatedAt:        now,
		}
		for _, it := range o.Items {
			rem.Items = append(rem.Items, newItem(rem.ID, it.ProductID, it.Quantity, it.UnitPrice))
		}
		return uc.insert(ctx, r, actor, o, rem)
	})
	if err != nil {
		return nil, err
	}
	uc.created(rem)
	return toRemitoResponse(rem), nil
}

// insert numera, guarda el remito con su trazabilidad inicial y marca el pedido.
func (uc *RemitoUseCase) insert(ctx context.Context, r repository.Repos, actor *string, o *entity.SalesOrder, rem *entity.OutboundRemito) error {
	rem.RecalculateTotals()
	number, err := numbering.Next(ctx, r.Sequences, workflow.RemitoPrefix(rem.RemitoType), rem.GenerationDate)
	if err != nil {
		return err
	}
	rem.Number = number
	if err := r.Remitos.Create(ctx, rem); err != nil {
		return err
	}
	for _, it := range rem.Items {
		entry := &entity.TrazabilidadEntry{
			ID:                uuid.New().String(),
			RemitoID:          rem.ID,
			ProductID:         it.ProductID,
			Stage:             entity.StagePreparacion,
			ResponsibleUserID: actor,
			StageStart:        rem.GenerationDate,
			IsAutomatic:       true,
		}
		if err := r.Trazabilidad.Append(ctx, entry); err != nil {
			return err
		}
	}
	o.RemitoStatus = entity.RemitoStatusRemitoGenerado
	o.UpdatedAt = rem.GenerationDate
	return r.Orders.Update(ctx, o)
}

func (uc *RemitoUseCase) created(rem *entity.OutboundRemito) {
	uc.log.Info().Str("remito_id", rem.ID).Str("number", rem.Number).Str("order_id", rem.OrderID).
		Int("items", len(rem.Items)).Msg("remito generado")
	uc.events.Publish(ports.EventRemitoCreated, toRemitoResponse(rem))
}

// Update aplica campos y cantidades. Un cambio de estado cierra las etapas abiertas y
// registra una nueva entrada de trazabilidad por ítem. Devuelto y cancelado son de solo lectura.
func (uc *RemitoUseCase) Update(ctx context.Context, actor *string, id string, in dto.UpdateRemitoRequest) (*dto.RemitoResponse, error) {
	var rem *entity.OutboundRemito
	var from string
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var err error
		rem, err = r.Remitos.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if rem == nil {
			return domain.NotFound("remito " + id)
		}
		if workflow.IsTerminalRemitoStatus(rem.Status) {
			return domain.Conflict("el remito está " + rem.Status + " y no admite cambios")
		}
		from = rem.Status
		now := time.Now()

		if in.Status.Set {
			if in.Status.Null {
				return domain.Invalid("status no puede ser null")
			}
			if in.Status.Value != rem.Status {
				if err := workflow.ValidateRemitoTransition(rem.Status, in.Status.Value); err != nil {
					return err
				}
				rem.Status = in.Status.Value
			}
		}
		applyHeader(rem, in)
		if err := applyItemUpdates(rem, in.Items); err != nil {
			return err
		}
		if rem.Status != from {
			applyStatusEffects(rem, now)
		}
		var bad []string
		for _, it := range rem.Items {
			it.Status = itemStatus(it)
			if err := it.Validate(); err != nil {
				bad = append(bad, err.Error())
			}
		}
		if len(bad) > 0 {
			return domain.Invalid("cantidades del remito inconsistentes", bad...)
		}

		rem.UpdatedAt = now
		if err := r.Remitos.Update(ctx, rem); err != nil {
			return err
		}
		for _, it := range rem.Items {
			if err := r.Remitos.UpdateItem(ctx, it); err != nil {
				return err
			}
		}
		if rem.Status == from {
			return nil
		}

		if err := r.Trazabilidad.CloseOpen(ctx, rem.ID, now); err != nil {
			return err
		}
		stage := workflow.StageForRemitoStatus(rem.Status)
		for _, it := range rem.Items {
			entry := &entity.TrazabilidadEntry{
				ID:                uuid.New().String(),
				RemitoID:          rem.ID,
				ProductID:         it.ProductID,
				Stage:             stage,
				Location:          in.Location,
				ResponsibleUserID: actor,
				ResponsibleName:   in.ResponsibleName,
				StageStart:        now,
				Temperature:       in.Temperature,
				Humidity:          in.Humidity,
				IsAutomatic:       actor == nil,
				Notes:             in.StageNotes,
			}
			if err := r.Trazabilidad.Append(ctx, entry); err != nil {
				return err
			}
		}
		switch rem.Status {
		case entity.RemitoEntregado:
			return uc.setOrderRemitoStatus(ctx, r, rem.OrderID, entity.RemitoStatusRemitoEntregado)
		case entity.RemitoCancelado:
			// el pedido queda libre para un nuevo remito; la reserva de stock sigue en el pedido
			return uc.setOrderRemitoStatus(ctx, r, rem.OrderID, entity.RemitoStatusSinRemito)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rem.Status != from {
		uc.log.Info().Str("remito_id", rem.ID).Str("from", from).Str("to", rem.Status).Msg("estado de remito actualizado")
		uc.events.Publish(ports.EventRemitoStatusChanged, statusEvent{
			ID: rem.ID, Number: rem.Number, OrderID: rem.OrderID, From: from, To: rem.Status,
		})
	}
	return toRemitoResponse(rem), nil
}

// Delete solo en generado. El pedido vuelve a sin_remito.
func (uc *RemitoUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(r repository.Repos) error {
		rem, err := r.Remitos.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if rem == nil {
			return domain.NotFound("remito " + id)
		}
		if rem.Status != entity.RemitoGenerado {
			return domain.Conflict("solo se pueden eliminar remitos en estado generado")
		}
		if err := r.Trazabilidad.DeleteByRemito(ctx, id); err != nil {
			return err
		}
		if err := r.Remitos.Delete(ctx, id); err != nil {
			return err
		}
		if err := uc.setOrderRemitoStatus(ctx, r, rem.OrderID, entity.RemitoStatusSinRemito); err != nil {
			return err
		}
		uc.log.Info().Str("remito_id", id).Msg("remito eliminado")
		return nil
	})
}

// GetTracking remito, historial por stage_start ascendente y entrega estimada.
func (uc *RemitoUseCase) GetTracking(ctx context.Context, id string) (*dto.TrackingResponse, error) {
	rem, err := uc.repos.Remitos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rem == nil {
		return nil, domain.NotFound("remito " + id)
	}
	history, err := uc.repos.Trazabilidad.ListByRemito(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &dto.TrackingResponse{
		Remito:            *toRemitoResponse(rem),
		History:           make([]dto.TrazabilidadResponse, 0, len(history)),
		EstimatedDelivery: workflow.EstimatedDelivery(rem.GenerationDate),
	}
	for _, e := range history {
		out.History = append(out.History, toTrazabilidadResponse(e))
	}
	return out, nil
}

// GetByID obtiene un remito con sus ítems.
func (uc *RemitoUseCase) GetByID(ctx context.Context, id string) (*dto.RemitoResponse, error) {
	rem, err := uc.repos.Remitos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rem == nil {
		return nil, domain.NotFound("remito " + id)
	}
	return toRemitoResponse(rem), nil
}

// List lista remitos por pedido y estado.
func (uc *RemitoUseCase) List(ctx context.Context, orderID, status string, page dto.PageRequest) (*dto.RemitoListResponse, error) {
	page.DefaultPage()
	list, err := uc.repos.Remitos.List(ctx, repository.RemitoFilter{
		OrderID: orderID,
		Status:  status,
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.RemitoListResponse{
		Items: make([]dto.RemitoResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, rem := range list {
		out.Items = append(out.Items, *toRemitoResponse(rem))
	}
	return out, nil
}

// RenderPDF genera el PDF del remito y devuelve bytes y nombre de archivo.
func (uc *RemitoUseCase) RenderPDF(ctx context.Context, id string) ([]byte, string, error) {
	if uc.generator == nil {
		return nil, "", fmt.Errorf("remito pdf: generador no configurado")
	}
	rem, err := uc.repos.Remitos.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if rem == nil {
		return nil, "", domain.NotFound("remito " + id)
	}
	client, err := uc.repos.Clients.GetByID(ctx, rem.ClientID)
	if err != nil {
		return nil, "", err
	}
	if client == nil {
		client = &entity.Client{ID: rem.ClientID}
	}
	lines := make([]RemitoLineForPDF, 0, len(rem.Items))
	for _, it := range rem.Items {
		l := RemitoLineForPDF{
			ProductName:       it.ProductID,
			Quantity:          it.Quantity,
			PreparedQuantity:  it.PreparedQuantity,
			DeliveredQuantity: it.DeliveredQuantity,
			UnitPrice:         it.UnitPrice,
			TotalPrice:        it.TotalPrice,
		}
		p, err := uc.repos.Products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, "", err
		}
		if p != nil {
			l.SKU, l.ProductName = p.SKU, p.Name
		}
		lines = append(lines, l)
	}
	pdf, err := uc.generator.GenerateRemitoPDF(ctx, rem, client, lines)
	if err != nil {
		return nil, "", fmt.Errorf("remito pdf: %w", err)
	}
	return pdf, rem.Number + ".pdf", nil
}

func (uc *RemitoUseCase) setOrderRemitoStatus(ctx context.Context, r repository.Repos, orderID, status string) error {
	o, err := r.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	if o == nil {
		// el pedido pudo borrarse; el remito es solo una referencia
		return nil
	}
	o.RemitoStatus = status
	o.UpdatedAt = time.Now()
	return r.Orders.Update(ctx, o)
}

func ensureNoRemito(ctx context.Context, r repository.Repos, orderID string) error {
	existing, err := r.Remitos.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.Conflict("el pedido ya tiene el remito " + existing.Number)
	}
	return nil
}

// checkAvailability compara lo pedido por producto contra stock actual + lo reservado por el
// propio pedido (la reserva ya descontó el stock).
func checkAvailability(ctx context.Context, r repository.Repos, o *entity.SalesOrder, items []dto.RemitoItemRequest) error {
	need := make(map[string]decimal.Decimal)
	for _, it := range items {
		need[it.ProductID] = need[it.ProductID].Add(it.Quantity)
	}
	ids := make([]string, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var short []string
	for _, id := range ids {
		ok, err := r.Products.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFound("producto " + id)
		}
		stock, err := r.Products.CurrentStock(ctx, id)
		if err != nil {
			return err
		}
		if need[id].GreaterThan(stock.Add(o.ReservedQuantity(id))) {
			short = append(short, id)
		}
	}
	if len(short) > 0 {
		return domain.Invalid("stock insuficiente", short...)
	}
	return nil
}

func newItem(remitoID, productID string, qty, unitPrice decimal.Decimal) *entity.RemitoItem {
	return &entity.RemitoItem{
		ID:                uuid.New().String(),
		RemitoID:          remitoID,
		ProductID:         productID,
		Quantity:          qty,
		UnitPrice:         unitPrice,
		TotalPrice:        ledger.LineTotal(qty, unitPrice),
		Status:            entity.RemitoItemPreparado,
		PreparedQuantity:  decimal.Zero,
		DeliveredQuantity: decimal.Zero,
		ReturnedQuantity:  decimal.Zero,
	}
}

func applyHeader(rem *entity.OutboundRemito, in dto.UpdateRemitoRequest) {
	set := func(dst *string, o dto.Optional[string]) {
		if o.Set {
			*dst = o.Value
		}
	}
	set(&rem.DeliveryAddress, in.DeliveryAddress)
	set(&rem.DeliveryContact, in.DeliveryContact)
	set(&rem.DeliveryPhone, in.DeliveryPhone)
	set(&rem.TransportCompany, in.TransportCompany)
	set(&rem.TrackingNumber, in.TrackingNumber)
	set(&rem.SignatureName, in.SignatureName)
	set(&rem.SignatureDocument, in.SignatureDocument)
	set(&rem.PhotoURL, in.PhotoURL)
	if in.Notes.Set {
		rem.Notes = in.Notes.Ptr()
	}
}

func applyItemUpdates(rem *entity.OutboundRemito, updates []dto.RemitoItemUpdate) error {
	byID := make(map[string]*entity.RemitoItem, len(rem.Items))
	for _, it := range rem.Items {
		byID[it.ID] = it
	}
	for _, u := range updates {
		it, ok := byID[u.ID]
		if !ok {
			return domain.NotFound("ítem de remito " + u.ID)
		}
		if u.PreparedQuantity != nil {
			it.PreparedQuantity = *u.PreparedQuantity
		}
		if u.DeliveredQuantity != nil {
			it.DeliveredQuantity = *u.DeliveredQuantity
		}
		if u.ReturnedQuantity != nil {
			it.ReturnedQuantity = *u.ReturnedQuantity
		}
	}
	return nil
}

// applyStatusEffects fechas y cantidades por omisión del nuevo estado. Solo completa valores en cero.
func applyStatusEffects(rem *entity.OutboundRemito, now time.Time) {
	switch rem.Status {
	case entity.RemitoPreparando, entity.RemitoListoDespacho:
		for _, it := range rem.Items {
			if it.PreparedQuantity.IsZero() {
				it.PreparedQuantity = it.Quantity
			}
		}
	case entity.RemitoEnTransito:
		rem.DispatchDate = &now
		for _, it := range rem.Items {
			if it.PreparedQuantity.IsZero() {
				it.PreparedQuantity = it.Quantity
			}
		}
	case entity.RemitoEntregado:
		rem.DeliveryDate = &now
		for _, it := range rem.Items {
			if it.DeliveredQuantity.IsZero() {
				it.DeliveredQuantity = it.PreparedQuantity
			}
		}
	case entity.RemitoDevuelto:
		for _, it := range rem.Items {
			if it.ReturnedQuantity.IsZero() {
				it.ReturnedQuantity = it.PreparedQuantity
				it.DeliveredQuantity = decimal.Zero
			}
		}
	}
}

func itemStatus(it *entity.RemitoItem) string {
	switch {
	case it.ReturnedQuantity.IsPositive() && it.ReturnedQuantity.Equal(it.PreparedQuantity):
		return entity.RemitoItemDevuelto
	case it.DeliveredQuantity.IsPositive() && it.DeliveredQuantity.Equal(it.Quantity):
		return entity.RemitoItemCompleto
	case it.DeliveredQuantity.IsPositive(), it.PreparedQuantity.IsPositive() && it.PreparedQuantity.LessThan(it.Quantity):
		return entity.RemitoItemParcial
	default:
		return entity.RemitoItemPreparado
	}
}
