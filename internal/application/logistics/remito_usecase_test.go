package logistics_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/application/events"
	"github.com/jhoicas/Remitos-api/internal/application/logistics"
	"github.com/jhoicas/Remitos-api/internal/application/ports"
	"github.com/jhoicas/Remitos-api/internal/application/sales"
	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/infrastructure/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Notify(_ context.Context, event string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

// brokenNotifier simula un broker de notificaciones caído.
type brokenNotifier struct {
	calls atomic.Int32
}

func (n *brokenNotifier) Notify(context.Context, string, any) error {
	n.calls.Add(1)
	return errors.New("redis: connection refused")
}

type fakePDF struct {
	lines []logistics.RemitoLineForPDF
}

func (g *fakePDF) GenerateRemitoPDF(_ context.Context, _ *entity.OutboundRemito, _ *entity.Client, lines []logistics.RemitoLineForPDF) ([]byte, error) {
	g.lines = lines
	return []byte("%PDF-1.4"), nil
}

type fixture struct {
	store      *memory.Store
	orders     *sales.OrderUseCase
	remitos    *logistics.RemitoUseCase
	pdf        *fakePDF
	dispatcher *events.Dispatcher
	notified   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddClient(&entity.Client{ID: "cli-1", Name: "Almacén Don José"})
	store.AddClient(&entity.Client{ID: "cli-2", Name: "Kiosco La Esquina"})
	store.AddProduct(&entity.Product{ID: "prod-1", SKU: "ACE-900", Name: "Aceite 900ml", Stock: dec("50")})
	store.AddProduct(&entity.Product{ID: "prod-2", SKU: "YER-1K", Name: "Yerba 1kg", Stock: dec("50")})

	rec := &recorder{}
	d := events.NewDispatcher(rec, zerolog.Nop())
	t.Cleanup(d.Wait)
	pdf := &fakePDF{}
	return &fixture{
		store:      store,
		orders:     sales.NewOrderUseCase(store.Repos(), store, d, sales.OrderConfig{AutoReserveOnApproval: true}, zerolog.Nop()),
		remitos:    logistics.NewRemitoUseCase(store.Repos(), store, d, pdf, zerolog.Nop()),
		pdf:        pdf,
		dispatcher: d,
		notified:   rec,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) stock(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	s, err := f.store.Repos().Products.CurrentStock(context.Background(), productID)
	require.NoError(t, err)
	return s
}

func ptr(s string) *string { return &s }

// approvedOrder pedido aprobado con stock reservado: 2 x 100 + 1 x 50, transporte 20.
func (f *fixture) approvedOrder(t *testing.T) *dto.OrderResponse {
	t.Helper()
	ctx := context.Background()
	res, err := f.orders.Create(ctx, ptr("user-1"), dto.CreateOrderRequest{
		ClientID:         "cli-1",
		DeliveryAddress:  "Av. Siempreviva 742",
		DeliveryContact:  "Marge",
		TransportCompany: "Expreso Sur",
		TransportCost:    dec("20"),
		Items: []dto.OrderItemRequest{
			{ProductID: "prod-1", Quantity: dec("2"), UnitPrice: dec("100")},
			{ProductID: "prod-2", Quantity: dec("1"), UnitPrice: dec("50")},
		},
	})
	require.NoError(t, err)
	o, err := f.orders.Update(ctx, res.Order.ID, dto.UpdateOrderRequest{Status: dto.Some(entity.OrderStatusAprobado)})
	require.NoError(t, err)
	require.True(t, o.StockReserved)
	return o
}

func (f *fixture) advance(t *testing.T, id string, statuses ...string) *dto.RemitoResponse {
	t.Helper()
	var rem *dto.RemitoResponse
	for _, s := range statuses {
		var err error
		rem, err = f.remitos.Update(context.Background(), ptr("user-3"), id, dto.UpdateRemitoRequest{Status: dto.Some(s)})
		require.NoError(t, err, s)
	}
	return rem
}

func TestGenerateFromOrder_CopiaPedido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.approvedOrder(t)

	rem, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "REM"+strconv.Itoa(time.Now().Year()%100)+"000001", rem.Number)
	assert.Equal(t, entity.RemitoGenerado, rem.Status)
	assert.Equal(t, entity.RemitoTypeEntregaCliente, rem.RemitoType)
	assert.Equal(t, "Av. Siempreviva 742", rem.DeliveryAddress)
	assert.Equal(t, "Expreso Sur", rem.TransportCompany)
	assert.Equal(t, 2, rem.TotalProducts)
	assert.True(t, dec("3").Equal(rem.TotalQuantity))
	assert.Equal(t, "250.00", rem.TotalValue.StringFixed(2))
	for _, it := range rem.Items {
		assert.Equal(t, entity.RemitoItemPreparado, it.Status)
		assert.True(t, it.PreparedQuantity.IsZero())
	}

	order, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RemitoStatusRemitoGenerado, order.RemitoStatus)

	tr, err := f.remitos.GetTracking(ctx, rem.ID)
	require.NoError(t, err)
	require.Len(t, tr.History, 2)
	for _, e := range tr.History {
		assert.Equal(t, entity.StagePreparacion, e.Stage)
		assert.True(t, e.IsAutomatic)
		assert.Nil(t, e.StageEnd)
	}
	assert.True(t, rem.GenerationDate.Add(72*time.Hour).Equal(tr.EstimatedDelivery))

	f.dispatcher.Wait()
	assert.Equal(t, 1, f.notified.count(ports.EventRemitoCreated))
}

func TestGenerateFromOrder_Duplicado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.approvedOrder(t)
	_, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)

	_, err = f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	list, err := f.remitos.List(ctx, o.ID, "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

func TestGenerateFromOrder_SinReserva(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.orders.Create(ctx, nil, dto.CreateOrderRequest{
		ClientID: "cli-1",
		Items:    []dto.OrderItemRequest{{ProductID: "prod-1", Quantity: dec("1"), UnitPrice: dec("10")}},
	})
	require.NoError(t, err)

	_, err = f.remitos.GenerateFromOrder(ctx, nil, res.Order.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.orders.Update(ctx, res.Order.ID, dto.UpdateOrderRequest{Status: dto.Some(entity.OrderStatusCancelado)})
	require.NoError(t, err)
	_, err = f.remitos.GenerateFromOrder(ctx, nil, res.Order.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	_, err = f.remitos.GenerateFromOrder(ctx, nil, "no-existe")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRemitoCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.approvedOrder(t)
	items := []dto.RemitoItemRequest{{ProductID: "prod-1", Quantity: dec("2"), UnitPrice: dec("100")}}

	_, err := f.remitos.Create(ctx, nil, dto.CreateRemitoRequest{OrderID: o.ID, ClientID: "cli-2", Items: items})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.remitos.Create(ctx, nil, dto.CreateRemitoRequest{OrderID: o.ID, ClientID: "cli-1", RemitoType: "otro", Items: items})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	// lo reservado por el pedido cuenta como disponible; 60 supera stock + reserva
	_, err = f.remitos.Create(ctx, nil, dto.CreateRemitoRequest{OrderID: o.ID, ClientID: "cli-1",
		Items: []dto.RemitoItemRequest{{ProductID: "prod-1", Quantity: dec("60"), UnitPrice: dec("1")}}})
	require.Error(t, err)
	assert.Equal(t, []string{"prod-1"}, domain.ValidationItems(err))

	rem, err := f.remitos.Create(ctx, ptr("user-3"), dto.CreateRemitoRequest{
		OrderID:        o.ID,
		ClientID:       "cli-1",
		RemitoType:     entity.RemitoTypeConsignacion,
		TrackingNumber: "TRK-1",
		Items:          items,
	})
	require.NoError(t, err)
	assert.Equal(t, "CON"+strconv.Itoa(time.Now().Year()%100)+"000001", rem.Number)
	require.NotNil(t, rem.CreatedBy)
	assert.Equal(t, "user-3", *rem.CreatedBy)
}

func TestRemitoCreate_PedidoNoElegible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.orders.Create(ctx, nil, dto.CreateOrderRequest{
		ClientID: "cli-1",
		Items:    []dto.OrderItemRequest{{ProductID: "prod-1", Quantity: dec("1"), UnitPrice: dec("10")}},
	})
	require.NoError(t, err)
	_, err = f.orders.ReserveStock(ctx, res.Order.ID)
	require.NoError(t, err)

	_, err = f.remitos.Create(ctx, nil, dto.CreateRemitoRequest{
		OrderID:  res.Order.ID,
		ClientID: "cli-1",
		Items:    []dto.RemitoItemRequest{{ProductID: "prod-1", Quantity: dec("1"), UnitPrice: dec("10")}},
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRemitoUpdate_CicloCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.approvedOrder(t)
	rem, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)

	prepared := f.advance(t, rem.ID, entity.RemitoPreparando)
	for _, it := range prepared.Items {
		assert.True(t, it.Quantity.Equal(it.PreparedQuantity))
	}

	transit := f.advance(t, rem.ID, entity.RemitoListoDespacho, entity.RemitoEnTransito)
	assert.NotNil(t, transit.DispatchDate)

	delivered, err := f.remitos.Update(ctx, ptr("user-3"), rem.ID, dto.UpdateRemitoRequest{
		Status:            dto.Some(entity.RemitoEntregado),
		SignatureName:     dto.Some("Homero"),
		SignatureDocument: dto.Some("20123456"),
		Location:          "Springfield",
	})
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveryDate)
	assert.Equal(t, "Homero", delivered.SignatureName)
	for _, it := range delivered.Items {
		assert.Equal(t, entity.RemitoItemCompleto, it.Status)
		assert.True(t, it.Quantity.Equal(it.DeliveredQuantity))
	}

	order, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RemitoStatusRemitoEntregado, order.RemitoStatus)

	tr, err := f.remitos.GetTracking(ctx, rem.ID)
	require.NoError(t, err)
	require.Len(t, tr.History, 10)
	open := 0
	for _, e := range tr.History {
		if e.StageEnd == nil {
			open++
			assert.Equal(t, entity.StageEntrega, e.Stage)
			assert.Equal(t, "Springfield", e.Location)
			assert.False(t, e.IsAutomatic)
		}
	}
	assert.Equal(t, 2, open)

	returned := f.advance(t, rem.ID, entity.RemitoDevuelto)
	for _, it := range returned.Items {
		assert.Equal(t, entity.RemitoItemDevuelto, it.Status)
		assert.True(t, it.DeliveredQuantity.IsZero())
	}

	f.dispatcher.Wait()
	assert.Equal(t, 5, f.notified.count(ports.EventRemitoStatusChanged))
}

func TestRemitoUpdate_TransicionInvalidaNoModifica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.approvedOrder(t)
	rem, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)

	_, err = f.remitos.Update(ctx, nil, rem.ID, dto.UpdateRemitoRequest{
		Status:         dto.Some(entity.RemitoEntregado),
		TrackingNumber: dto.Some("TRK-9"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	got, err := f.remitos.GetByID(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RemitoGenerado, got.Status)
	assert.Empty(t, got.TrackingNumber)

	tr, err := f.remitos.GetTracking(ctx, rem.ID)
	require.NoError(t, err)
	assert.Len(t, tr.History, 2)
}

func TestRemitoUpdate_CantidadesInconsistentes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.approvedOrder(t)
	rem, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)
	f.advance(t, rem.ID, entity.RemitoPreparando)

	over := dec("5")
	_, err = f.remitos.Update(ctx, nil, rem.ID, dto.UpdateRemitoRequest{
		Items: []dto.RemitoItemUpdate{{ID: rem.Items[0].ID, DeliveredQuantity: &over}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	one := dec("1")
	got, err := f.remitos.Update(ctx, nil, rem.ID, dto.UpdateRemitoRequest{
		Items: []dto.RemitoItemUpdate{{ID: rem.Items[0].ID, PreparedQuantity: &one}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RemitoItemParcial, got.Items[0].Status)

	_, err = f.remitos.Update(ctx, nil, rem.ID, dto.UpdateRemitoRequest{
		Items: []dto.RemitoItemUpdate{{ID: "no-existe", PreparedQuantity: &one}},
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRemitoDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.approvedOrder(t)
	rem, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)

	require.NoError(t, f.remitos.Delete(ctx, rem.ID))
	order, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RemitoStatusSinRemito, order.RemitoStatus)
	_, err = f.remitos.GetTracking(ctx, rem.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	again, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)
	f.advance(t, again.ID, entity.RemitoPreparando)
	assert.True(t, errors.Is(f.remitos.Delete(ctx, again.ID), domain.ErrConflict))
}

func TestRenderPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.approvedOrder(t)
	rem, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)

	b, name, err := f.remitos.RenderPDF(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, rem.Number+".pdf", name)
	assert.Equal(t, "%PDF-1.4", string(b))
	require.Len(t, f.pdf.lines, 2)
	assert.Equal(t, "ACE-900", f.pdf.lines[0].SKU)

	noGen := logistics.NewRemitoUseCase(f.store.Repos(), f.store, f.dispatcher, nil, zerolog.Nop())
	_, _, err = noGen.RenderPDF(ctx, rem.ID)
	assert.Error(t, err)
}

func TestOrderDelete_ConRemitoVigente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.orders.Create(ctx, nil, dto.CreateOrderRequest{
		ClientID: "cli-1",
		Items:    []dto.OrderItemRequest{{ProductID: "prod-1", Quantity: dec("10"), UnitPrice: dec("1")}},
	})
	require.NoError(t, err)
	_, err = f.orders.ReserveStock(ctx, res.Order.ID)
	require.NoError(t, err)
	rem, err := f.remitos.GenerateFromOrder(ctx, nil, res.Order.ID)
	require.NoError(t, err)

	err = f.orders.Delete(ctx, res.Order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	assert.True(t, dec("40").Equal(f.stock(t, "prod-1")), "la reserva sigue aplicada")
	_, err = f.orders.GetByID(ctx, res.Order.ID)
	require.NoError(t, err)
	_, err = f.remitos.GetByID(ctx, rem.ID)
	require.NoError(t, err)
}

func TestRemitoCancelado_LiberaPedido(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.approvedOrder(t)
	rem, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)

	// con remito vigente el pedido no se puede cancelar
	_, err = f.orders.Update(ctx, o.ID, dto.UpdateOrderRequest{Status: dto.Some(entity.OrderStatusCancelado)})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	f.advance(t, rem.ID, entity.RemitoCancelado)
	order, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RemitoStatusSinRemito, order.RemitoStatus)
	assert.True(t, order.StockReserved)

	again, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)
	assert.NotEqual(t, rem.ID, again.ID)
	assert.Equal(t, "REM"+strconv.Itoa(time.Now().Year()%100)+"000002", again.Number)

	f.advance(t, again.ID, entity.RemitoCancelado)
	cancelled, err := f.orders.Update(ctx, o.ID, dto.UpdateOrderRequest{Status: dto.Some(entity.OrderStatusCancelado)})
	require.NoError(t, err)
	assert.False(t, cancelled.StockReserved)
	assert.True(t, dec("50").Equal(f.stock(t, "prod-1")))
	assert.True(t, dec("50").Equal(f.stock(t, "prod-2")))
}

func TestRemitoUpdate_TerminalNoAdmiteCambios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.approvedOrder(t)
	rem, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)
	f.advance(t, rem.ID, entity.RemitoCancelado)

	one := dec("1")
	_, err = f.remitos.Update(ctx, nil, rem.ID, dto.UpdateRemitoRequest{
		TrackingNumber: dto.Some("TRK-9"),
		Items:          []dto.RemitoItemUpdate{{ID: rem.Items[0].ID, PreparedQuantity: &one}},
	})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	got, err := f.remitos.GetByID(ctx, rem.ID)
	require.NoError(t, err)
	assert.Empty(t, got.TrackingNumber)
	assert.True(t, got.Items[0].PreparedQuantity.IsZero())

	// devuelto también es final
	second, err := f.remitos.GenerateFromOrder(ctx, nil, o.ID)
	require.NoError(t, err)
	f.advance(t, second.ID, entity.RemitoPreparando, entity.RemitoListoDespacho, entity.RemitoEnTransito, entity.RemitoDevuelto)
	_, err = f.remitos.Update(ctx, nil, second.ID, dto.UpdateRemitoRequest{SignatureName: dto.Some("Homero")})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRemito_NotificacionFallidaNoRevierte(t *testing.T) {
	store := memory.NewStore()
	store.AddClient(&entity.Client{ID: "cli-1", Name: "Almacén Don José"})
	store.AddProduct(&entity.Product{ID: "prod-1", SKU: "ACE-900", Name: "Aceite 900ml", Stock: dec("5")})
	broken := &brokenNotifier{}
	d := events.NewDispatcher(broken, zerolog.Nop())
	orders := sales.NewOrderUseCase(store.Repos(), store, d, sales.OrderConfig{AutoReserveOnApproval: true}, zerolog.Nop())
	remitos := logistics.NewRemitoUseCase(store.Repos(), store, d, nil, zerolog.Nop())
	ctx := context.Background()

	res, err := orders.Create(ctx, nil, dto.CreateOrderRequest{
		ClientID: "cli-1",
		Items:    []dto.OrderItemRequest{{ProductID: "prod-1", Quantity: dec("2"), UnitPrice: dec("10")}},
	})
	require.NoError(t, err)
	_, err = orders.Update(ctx, res.Order.ID, dto.UpdateOrderRequest{Status: dto.Some(entity.OrderStatusAprobado)})
	require.NoError(t, err)
	rem, err := remitos.GenerateFromOrder(ctx, nil, res.Order.ID)
	require.NoError(t, err)

	moved, err := remitos.Update(ctx, ptr("user-3"), rem.ID, dto.UpdateRemitoRequest{Status: dto.Some(entity.RemitoPreparando)})
	require.NoError(t, err)
	assert.Equal(t, entity.RemitoPreparando, moved.Status)

	d.Wait()
	// pedido creado, pedido aprobado, remito creado, cambio de estado
	assert.Equal(t, int32(4), broken.calls.Load())

	persisted, err := remitos.GetByID(ctx, rem.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RemitoPreparando, persisted.Status)
	tr, err := remitos.GetTracking(ctx, rem.ID)
	require.NoError(t, err)
	assert.Len(t, tr.History, 2)
}
