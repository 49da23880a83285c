package sales_test

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

// failingLocker simula una importación concurrente que ya tiene la clave.
type failingLocker struct{}

func (failingLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	return nil, errors.New("clave tomada")
}

type fixture struct {
	store      *memory.Store
	orders     *sales.OrderUseCase
	dispatcher *events.Dispatcher
	notified   *recorder
}

func newFixture(t *testing.T, cfg sales.OrderConfig) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddClient(&entity.Client{ID: "cli-1", Name: "Almacén Don José"})
	store.AddProduct(&entity.Product{ID: "prod-1", SKU: "ACE-900", Name: "Aceite 900ml", Stock: dec("10")})
	store.AddProduct(&entity.Product{ID: "prod-2", SKU: "YER-1K", Name: "Yerba 1kg", Stock: dec("3")})

	rec := &recorder{}
	d := events.NewDispatcher(rec, zerolog.Nop())
	t.Cleanup(d.Wait)
	return &fixture{
		store:      store,
		orders:     sales.NewOrderUseCase(store.Repos(), store, d, cfg, zerolog.Nop()),
		dispatcher: d,
		notified:   rec,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *string { return &s }

func orderRequest(items ...dto.OrderItemRequest) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		ClientID:        "cli-1",
		DeliveryAddress: "Av. Siempreviva 742",
		TransportCost:   dec("20.00"),
		Items:           items,
	}
}

func item(productID, qty, price string) dto.OrderItemRequest {
	return dto.OrderItemRequest{ProductID: productID, Quantity: dec(qty), UnitPrice: dec(price)}
}

func (f *fixture) stock(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	s, err := f.store.Repos().Products.CurrentStock(context.Background(), productID)
	require.NoError(t, err)
	return s
}

func TestOrderCreate_TotalConTransporte(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})

	res, err := f.orders.Create(context.Background(), ptr("user-1"), orderRequest(item("prod-1", "2", "100.00"), item("prod-2", "1", "50.00")))
	require.NoError(t, err)
	require.True(t, res.Created)

	o := res.Order
	assert.Equal(t, "270.00", o.TotalAmount.StringFixed(2))
	assert.Equal(t, entity.OrderStatusPendientePreparacion, o.Status)
	assert.Equal(t, entity.RemitoStatusSinRemito, o.RemitoStatus)
	assert.Equal(t, entity.OrderSourceInterno, o.Source)
	assert.False(t, o.StockReserved)
	assert.Equal(t, "PED"+strconv.Itoa(time.Now().Year()%100)+"000001", o.Number)
	assert.True(t, dec("200").Equal(o.Items[0].TotalPrice))

	f.dispatcher.Wait()
	assert.Equal(t, 1, f.notified.count(ports.EventOrderCreated))
}

func TestOrderCreate_Validaciones(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	ctx := context.Background()

	_, err := f.orders.Create(ctx, nil, orderRequest())
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.orders.Create(ctx, nil, orderRequest(item("prod-1", "-1", "1")))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, []string{"items[0]"}, domain.ValidationItems(err))

	req := orderRequest(item("prod-1", "1", "1"))
	req.ClientID = "cli-9"
	_, err = f.orders.Create(ctx, nil, req)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.orders.Create(ctx, nil, orderRequest(item("prod-9", "1", "1")))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestOrderImportExternal_Idempotente(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	ctx := context.Background()
	req := orderRequest(item("prod-1", "1", "10"))
	req.ExternalOrderID = ptr(" WEB-1001 ")

	first, err := f.orders.ImportExternal(ctx, req)
	require.NoError(t, err)
	require.True(t, first.Created)
	assert.Equal(t, entity.OrderSourceExterno, first.Order.Source)
	assert.Nil(t, first.Order.CreatedBy)
	require.NotNil(t, first.Order.ExternalOrderID)
	assert.Equal(t, "WEB-1001", *first.Order.ExternalOrderID)

	again, err := f.orders.ImportExternal(ctx, req)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.Order.ID, again.Order.ID)

	list, err := f.orders.List(ctx, "cli-1", "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	f.dispatcher.Wait()
	assert.Equal(t, 1, f.notified.count(ports.EventOrderCreated))
}

func TestOrderImportExternal_PorNumero(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	ctx := context.Background()
	req := orderRequest(item("prod-1", "1", "10"))
	req.ExternalOrderNumber = ptr("#5001")

	first, err := f.orders.ImportExternal(ctx, req)
	require.NoError(t, err)
	again, err := f.orders.ImportExternal(ctx, req)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.Order.ID, again.Order.ID)

	// un create interno con el mismo número externo también devuelve el existente
	internal, err := f.orders.Create(ctx, ptr("user-1"), req)
	require.NoError(t, err)
	assert.False(t, internal.Created)
}

func TestOrderImportExternal_SinIdentificador(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	req := orderRequest(item("prod-1", "1", "10"))
	req.ExternalOrderID = ptr("  ")

	_, err := f.orders.ImportExternal(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestOrderImportExternal_ClaveTomada(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	f.orders.WithLocker(failingLocker{})
	req := orderRequest(item("prod-1", "1", "10"))
	req.ExternalOrderID = ptr("WEB-7")

	_, err := f.orders.ImportExternal(context.Background(), req)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestOrderUpdate_TransicionInvalidaNoModifica(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	ctx := context.Background()
	res, err := f.orders.Create(ctx, nil, orderRequest(item("prod-1", "1", "10")))
	require.NoError(t, err)

	_, err = f.orders.Update(ctx, res.Order.ID, dto.UpdateOrderRequest{
		Status:          dto.Some(entity.OrderStatusCompletado),
		DeliveryAddress: dto.Some("otra dirección"),
	})
	require.Error(t, err)
	var te *domain.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, entity.OrderStatusPendientePreparacion, te.From)

	got, err := f.orders.GetByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPendientePreparacion, got.Status)
	assert.Equal(t, "Av. Siempreviva 742", got.DeliveryAddress)
}

func TestOrderUpdate_RecalculaTotal(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	ctx := context.Background()
	res, err := f.orders.Create(ctx, nil, orderRequest(item("prod-1", "2", "100")))
	require.NoError(t, err)

	got, err := f.orders.Update(ctx, res.Order.ID, dto.UpdateOrderRequest{
		Status:        dto.Some(entity.OrderStatusAprobado),
		TransportCost: dto.Some(dec("35")),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusAprobado, got.Status)
	assert.True(t, dec("235").Equal(got.TotalAmount))
	assert.False(t, got.StockReserved)

	f.dispatcher.Wait()
	assert.Equal(t, 1, f.notified.count(ports.EventOrderStatusChanged))
}

func TestOrderReserveStock(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	ctx := context.Background()
	res, err := f.orders.Create(ctx, nil, orderRequest(item("prod-1", "4", "10"), item("prod-1", "2", "10"), item("prod-2", "1", "5")))
	require.NoError(t, err)

	got, err := f.orders.ReserveStock(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.True(t, got.StockReserved)
	for _, it := range got.Items {
		assert.True(t, it.StockReserved)
	}
	assert.True(t, dec("4").Equal(f.stock(t, "prod-1")))
	assert.True(t, dec("2").Equal(f.stock(t, "prod-2")))

	_, err = f.orders.ReserveStock(ctx, res.Order.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestOrderReserveStock_Insuficiente(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	ctx := context.Background()
	res, err := f.orders.Create(ctx, nil, orderRequest(item("prod-1", "5", "10"), item("prod-2", "4", "5")))
	require.NoError(t, err)

	_, err = f.orders.ReserveStock(ctx, res.Order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, []string{"prod-2"}, domain.ValidationItems(err))

	// todo o nada
	assert.True(t, dec("10").Equal(f.stock(t, "prod-1")))
	got, err := f.orders.GetByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.False(t, got.StockReserved)
}

func TestOrderUpdate_ReservaAutomatica(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{AutoReserveOnApproval: true})
	ctx := context.Background()
	res, err := f.orders.Create(ctx, nil, orderRequest(item("prod-1", "3", "10")))
	require.NoError(t, err)

	got, err := f.orders.Update(ctx, res.Order.ID, dto.UpdateOrderRequest{Status: dto.Some(entity.OrderStatusAprobado)})
	require.NoError(t, err)
	assert.True(t, got.StockReserved)
	assert.True(t, dec("7").Equal(f.stock(t, "prod-1")))

	short, err := f.orders.Create(ctx, nil, orderRequest(item("prod-2", "9", "10")))
	require.NoError(t, err)
	_, err = f.orders.Update(ctx, short.Order.ID, dto.UpdateOrderRequest{Status: dto.Some(entity.OrderStatusListoDespacho)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	unchanged, err := f.orders.GetByID(ctx, short.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPendientePreparacion, unchanged.Status)
}

func TestOrderDelete(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	ctx := context.Background()
	res, err := f.orders.Create(ctx, nil, orderRequest(item("prod-1", "4", "10")))
	require.NoError(t, err)
	_, err = f.orders.ReserveStock(ctx, res.Order.ID)
	require.NoError(t, err)
	require.True(t, dec("6").Equal(f.stock(t, "prod-1")))

	require.NoError(t, f.orders.Delete(ctx, res.Order.ID))
	assert.True(t, dec("10").Equal(f.stock(t, "prod-1")))
	_, err = f.orders.GetByID(ctx, res.Order.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	approved, err := f.orders.Create(ctx, nil, orderRequest(item("prod-1", "1", "10")))
	require.NoError(t, err)
	_, err = f.orders.Update(ctx, approved.Order.ID, dto.UpdateOrderRequest{Status: dto.Some(entity.OrderStatusAprobado)})
	require.NoError(t, err)
	assert.True(t, errors.Is(f.orders.Delete(ctx, approved.Order.ID), domain.ErrConflict))
}

func TestOrder_NotificacionFallidaNoRevierte(t *testing.T) {
	store := memory.NewStore()
	store.AddClient(&entity.Client{ID: "cli-1", Name: "Almacén Don José"})
	store.AddProduct(&entity.Product{ID: "prod-1", SKU: "ACE-900", Name: "Aceite 900ml", Stock: dec("10")})
	broken := &brokenNotifier{}
	d := events.NewDispatcher(broken, zerolog.Nop())
	orders := sales.NewOrderUseCase(store.Repos(), store, d, sales.OrderConfig{}, zerolog.Nop())
	ctx := context.Background()

	res, err := orders.Create(ctx, nil, orderRequest(item("prod-1", "1", "10")))
	require.NoError(t, err)
	require.True(t, res.Created)

	got, err := orders.Update(ctx, res.Order.ID, dto.UpdateOrderRequest{Status: dto.Some(entity.OrderStatusAprobado)})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusAprobado, got.Status)

	d.Wait()
	assert.Equal(t, int32(2), broken.calls.Load())

	persisted, err := orders.GetByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusAprobado, persisted.Status)
	assert.Equal(t, res.Order.Number, persisted.Number)
}

func TestOrderUpdate_CancelarDevuelveReserva(t *testing.T) {
	f := newFixture(t, sales.OrderConfig{})
	ctx := context.Background()
	res, err := f.orders.Create(ctx, nil, orderRequest(item("prod-1", "4", "10"), item("prod-2", "3", "5")))
	require.NoError(t, err)
	_, err = f.orders.ReserveStock(ctx, res.Order.ID)
	require.NoError(t, err)
	require.True(t, dec("6").Equal(f.stock(t, "prod-1")))
	require.True(t, f.stock(t, "prod-2").IsZero())

	got, err := f.orders.Update(ctx, res.Order.ID, dto.UpdateOrderRequest{Status: dto.Some(entity.OrderStatusCancelado)})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelado, got.Status)
	assert.False(t, got.StockReserved)
	for _, it := range got.Items {
		assert.False(t, it.StockReserved)
	}
	assert.True(t, dec("10").Equal(f.stock(t, "prod-1")))
	assert.True(t, dec("3").Equal(f.stock(t, "prod-2")))

	persisted, err := f.orders.GetByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.False(t, persisted.StockReserved)
}
