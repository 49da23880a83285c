// Package sales pedidos de venta: creación idempotente, transiciones de estado y reserva de stock.
package sales

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
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

// OrderConfig comportamiento configurable del flujo de pedidos.
type OrderConfig struct {
	// AutoReserveOnApproval reserva stock al pasar a aprobado o listo_despacho.
	AutoReserveOnApproval bool
}

// OrderUseCase pedidos de venta.
type OrderUseCase struct {
	repos    repository.Repos
	txRunner ports.TxRunner
	events   *events.Dispatcher
	cfg      OrderConfig
	locker   ports.Locker
	log      zerolog.Logger
}

// importLockTTL tiempo máximo que una importación externa retiene su clave.
const importLockTTL = 10 * time.Second

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(repos repository.Repos, txRunner ports.TxRunner, dispatcher *events.Dispatcher, cfg OrderConfig, log zerolog.Logger) *OrderUseCase {
	return &OrderUseCase{
		repos:    repos,
		txRunner: txRunner,
		events:   dispatcher,
		cfg:      cfg,
		locker:   ports.NopLocker{},
		log:      log.With().Str("component", "orders").Logger(),
	}
}

// WithLocker serializa las importaciones externas del mismo pedido entre instancias.
func (uc *OrderUseCase) WithLocker(l ports.Locker) *OrderUseCase {
	if l != nil {
		uc.locker = l
	}
	return uc
}

// Create crea un pedido interno. Si trae id o número externo ya registrado devuelve el existente.
func (uc *OrderUseCase) Create(ctx context.Context, actor *string, in dto.CreateOrderRequest) (*dto.CreateOrderResult, error) {
	return uc.create(ctx, actor, entity.OrderSourceInterno, in)
}

// ImportExternal crea un pedido desde el canal de venta externo, sin actor. Reintentos seguros.
func (uc *OrderUseCase) ImportExternal(ctx context.Context, in dto.CreateOrderRequest) (*dto.CreateOrderResult, error) {
	if isBlank(in.ExternalOrderID) && isBlank(in.ExternalOrderNumber) {
		return nil, domain.Invalid("external_order_id o external_order_number es requerido")
	}
	key := "orders:external:"
	if !isBlank(in.ExternalOrderID) {
		key += "id:" + strings.TrimSpace(*in.ExternalOrderID)
	} else {
		key += "number:" + strings.TrimSpace(*in.ExternalOrderNumber)
	}
	release, err := uc.locker.Obtain(ctx, key, importLockTTL)
	if err != nil {
		return nil, domain.Conflict("importación en curso para " + key)
	}
	defer release()
	return uc.create(ctx, nil, entity.OrderSourceExterno, in)
}

func (uc *OrderUseCase) create(ctx context.Context, actor *string, source string, in dto.CreateOrderRequest) (*dto.CreateOrderResult, error) {
	if in.ClientID == "" || len(in.Items) == 0 {
		return nil, domain.Invalid("cliente y al menos una línea son requeridos")
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
		return nil, domain.Invalid("líneas inválidas", bad...)
	}
	in.ExternalOrderID = trimmed(in.ExternalOrderID)
	in.ExternalOrderNumber = trimmed(in.ExternalOrderNumber)

	existing, err := findExisting(ctx, uc.repos.Orders, in)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		uc.log.Debug().Str("order_id", existing.ID).Msg("pedido externo ya importado")
		return &dto.CreateOrderResult{Order: toOrderResponse(existing), Created: false}, nil
	}

	now := time.Now()
	o := &entity.SalesOrder{
		ID:                  uuid.New().String(),
		ExternalOrderID:     in.ExternalOrderID,
		ExternalOrderNumber: in.ExternalOrderNumber,
		ClientID:            in.ClientID,
		Status:              entity.OrderStatusPendientePreparacion,
		RemitoStatus:        entity.RemitoStatusSinRemito,
		Source:              source,
		DeliveryAddress:     in.DeliveryAddress,
		DeliveryContact:     in.DeliveryContact,
		DeliveryPhone:       in.DeliveryPhone,
		TransportCompany:    in.TransportCompany,
		TransportCost:       in.TransportCost,
		Notes:               in.Notes,
		CreatedBy:           actor,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, it := range in.Items {
		o.Items = append(o.Items, &entity.OrderLineItem{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  ledger.LineTotal(it.Quantity, it.UnitPrice),
			BatchNumber: it.BatchNumber,
		})
	}
	o.TotalAmount = orderTotal(o)

	var dup *entity.SalesOrder
	err = uc.txRunner.Run(ctx, func(r repository.Repos) error {
		client, err := r.Clients.GetByID(ctx, o.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return domain.NotFound("cliente " + o.ClientID)
		}
		for _, it := range o.Items {
			ok, err := r.Products.Exists(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if !ok {
				return domain.NotFound("producto " + it.ProductID)
			}
		}
		dup, err = findExisting(ctx, r.Orders, in)
		if err != nil || dup != nil {
			return err
		}
		o.Number, err = numbering.Next(ctx, r.Sequences, workflow.PrefixSalesOrder, now)
		if err != nil {
			return err
		}
		return r.Orders.Create(ctx, o)
	})
	if errors.Is(err, domain.ErrDuplicate) && in.ExternalOrderID != nil {
		// otra petición concurrente importó el mismo pedido
		dup, err = uc.repos.Orders.GetByExternalID(ctx, *in.ExternalOrderID)
		if err == nil && dup == nil {
			err = domain.NotFound("pedido externo " + *in.ExternalOrderID)
		}
	}
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return &dto.CreateOrderResult{Order: toOrderResponse(dup), Created: false}, nil
	}

	uc.log.Info().Str("order_id", o.ID).Str("number", o.Number).Str("source", o.Source).
		Str("total", o.TotalAmount.String()).Msg("pedido creado")
	resp := toOrderResponse(o)
	uc.events.Publish(ports.EventOrderCreated, resp)
	return &dto.CreateOrderResult{Order: resp, Created: true}, nil
}

// Update aplica los campos presentes. Con AutoReserveOnApproval, entrar a aprobado o
// listo_despacho reserva stock en la misma transacción. Cancelar devuelve la reserva al
// catálogo y exige que el pedido no tenga un remito vigente.
func (uc *OrderUseCase) Update(ctx context.Context, id string, in dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	var o *entity.SalesOrder
	var from string
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var err error
		o, err = r.Orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.NotFound("pedido " + id)
		}
		from = o.Status

		if in.Status.Set {
			if in.Status.Null {
				return domain.Invalid("status no puede ser null")
			}
			if in.Status.Value != o.Status {
				if err := workflow.ValidateOrderTransition(o.Status, in.Status.Value); err != nil {
					return err
				}
				o.Status = in.Status.Value
			}
		}
		if in.DeliveryAddress.Set {
			o.DeliveryAddress = in.DeliveryAddress.Value
		}
		if in.DeliveryContact.Set {
			o.DeliveryContact = in.DeliveryContact.Value
		}
		if in.DeliveryPhone.Set {
			o.DeliveryPhone = in.DeliveryPhone.Value
		}
		if in.TransportCompany.Set {
			o.TransportCompany = in.TransportCompany.Value
		}
		if in.TransportCost.Set {
			if in.TransportCost.Null {
				o.TransportCost = decimal.Zero
			} else {
				if in.TransportCost.Value.IsNegative() {
					return domain.Invalid("transport_cost no puede ser negativo")
				}
				o.TransportCost = in.TransportCost.Value
			}
			o.TotalAmount = orderTotal(o)
		}
		if in.Notes.Set {
			o.Notes = in.Notes.Ptr()
		}

		if o.Status != from && o.Status == entity.OrderStatusCancelado {
			if err := ensureNoActiveRemito(ctx, r, o.ID); err != nil {
				return err
			}
			if err := release(ctx, r, o); err != nil {
				return err
			}
		}
		if uc.cfg.AutoReserveOnApproval && o.Status != from && workflow.AutoReserveStatus(o.Status) && !o.StockReserved {
			if err := reserve(ctx, r, o); err != nil {
				return err
			}
		}
		o.UpdatedAt = time.Now()
		return r.Orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(o)
	if o.Status != from {
		uc.log.Info().Str("order_id", o.ID).Str("from", from).Str("to", o.Status).Msg("estado de pedido actualizado")
		uc.events.Publish(ports.EventOrderStatusChanged, statusEvent{ID: o.ID, Number: o.Number, From: from, To: o.Status})
	}
	return resp, nil
}

// ReserveStock descuenta el stock de todas las líneas. Todo o nada.
func (uc *OrderUseCase) ReserveStock(ctx context.Context, id string) (*dto.OrderResponse, error) {
	var o *entity.SalesOrder
	err := uc.txRunner.Run(ctx, func(r repository.Repos) error {
		var err error
		o, err = r.Orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.NotFound("pedido " + id)
		}
		if o.StockReserved {
			return domain.Conflict("el pedido ya tiene stock reservado")
		}
		if workflow.IsTerminalOrderStatus(o.Status) {
			return domain.Conflict("el pedido está " + o.Status)
		}
		if err := reserve(ctx, r, o); err != nil {
			return err
		}
		o.UpdatedAt = time.Now()
		return r.Orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", o.ID).Msg("stock reservado")
	return toOrderResponse(o), nil
}

// Delete solo en pendiente_preparacion y sin remito vigente. Devuelve al catálogo el stock reservado.
func (uc *OrderUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(r repository.Repos) error {
		o, err := r.Orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.NotFound("pedido " + id)
		}
		if o.Status != entity.OrderStatusPendientePreparacion {
			return domain.Conflict("solo se pueden eliminar pedidos en pendiente_preparacion")
		}
		if err := ensureNoActiveRemito(ctx, r, o.ID); err != nil {
			return err
		}
		reserved := o.StockReserved
		if err := release(ctx, r, o); err != nil {
			return err
		}
		if err := r.Orders.Delete(ctx, id); err != nil {
			return err
		}
		uc.log.Info().Str("order_id", id).Bool("stock_released", reserved).Msg("pedido eliminado")
		return nil
	})
}

// GetByID obtiene un pedido con sus líneas.
func (uc *OrderUseCase) GetByID(ctx context.Context, id string) (*dto.OrderResponse, error) {
	o, err := uc.repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NotFound("pedido " + id)
	}
	return toOrderResponse(o), nil
}

// List lista pedidos filtrando por cliente y estado.
func (uc *OrderUseCase) List(ctx context.Context, clientID, status string, page dto.PageRequest) (*dto.OrderListResponse, error) {
	page.DefaultPage()
	list, err := uc.repos.Orders.List(ctx, repository.OrderFilter{
		ClientID: clientID,
		Status:   status,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.OrderListResponse{
		Items: make([]dto.OrderResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, o := range list {
		out.Items = append(out.Items, *toOrderResponse(o))
	}
	return out, nil
}

// reserve valida disponibilidad de todas las líneas antes de escribir. Los productos se
// bloquean en orden de id para no cruzarse con otra reserva concurrente.
func reserve(ctx context.Context, r repository.Repos, o *entity.SalesOrder) error {
	need := make(map[string]decimal.Decimal)
	for _, it := range o.Items {
		need[it.ProductID] = need[it.ProductID].Add(it.Quantity)
	}
	ids := make([]string, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var short []string
	for _, id := range ids {
		stock, err := r.Products.GetStockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if need[id].GreaterThan(stock) {
			short = append(short, id)
		}
	}
	if len(short) > 0 {
		return domain.Invalid("stock insuficiente", short...)
	}

	for _, id := range ids {
		if err := r.Products.AdjustStock(ctx, id, need[id].Neg()); err != nil {
			return err
		}
	}
	for _, it := range o.Items {
		if err := r.Orders.UpdateItemReserved(ctx, it.ID, true); err != nil {
			return err
		}
		it.StockReserved = true
	}
	o.StockReserved = true
	return nil
}

// release devuelve al catálogo lo reservado por cada línea y desmarca la reserva.
func release(ctx context.Context, r repository.Repos, o *entity.SalesOrder) error {
	for _, it := range o.Items {
		if !it.StockReserved {
			continue
		}
		if err := r.Products.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
		if err := r.Orders.UpdateItemReserved(ctx, it.ID, false); err != nil {
			return err
		}
		it.StockReserved = false
	}
	o.StockReserved = false
	return nil
}

func ensureNoActiveRemito(ctx context.Context, r repository.Repos, orderID string) error {
	rem, err := r.Remitos.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if rem != nil {
		return domain.Conflict("el pedido tiene el remito " + rem.Number + " vigente")
	}
	return nil
}

func findExisting(ctx context.Context, orders repository.SalesOrderRepository, in dto.CreateOrderRequest) (*entity.SalesOrder, error) {
	if in.ExternalOrderID != nil {
		return orders.GetByExternalID(ctx, *in.ExternalOrderID)
	}
	if in.ExternalOrderNumber != nil {
		return orders.GetByExternalNumber(ctx, *in.ExternalOrderNumber)
	}
	return nil, nil
}

func orderTotal(o *entity.SalesOrder) decimal.Decimal {
	lines := make([]ledger.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, ledger.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return ledger.AggregateTotal(lines, o.TransportCost)
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// trimmed normaliza los identificadores externos; vacío equivale a ausente.
func trimmed(s *string) *string {
	if isBlank(s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
