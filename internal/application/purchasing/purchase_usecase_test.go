package purchasing_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/application/events"
	"github.com/jhoicas/Remitos-api/internal/application/purchasing"
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

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fixture struct {
	store      *memory.Store
	purchases  *purchasing.PurchaseUseCase
	notes      *purchasing.DeliveryNoteUseCase
	dispatcher *events.Dispatcher
	notified   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddSupplier(&entity.Supplier{ID: "sup-1", Name: "Distribuidora Norte"})
	store.AddSupplier(&entity.Supplier{ID: "sup-2", Name: "Mayorista Sur"})
	store.AddProduct(&entity.Product{ID: "prod-1", SKU: "HAR-001", Name: "Harina 000", Stock: decimal.Zero})
	store.AddProduct(&entity.Product{ID: "prod-2", SKU: "AZU-001", Name: "Azúcar", Stock: decimal.Zero})

	rec := &recorder{}
	d := events.NewDispatcher(rec, zerolog.Nop())
	t.Cleanup(d.Wait)
	return &fixture{
		store:      store,
		purchases:  purchasing.NewPurchaseUseCase(store.Repos(), store, zerolog.Nop()),
		notes:      purchasing.NewDeliveryNoteUseCase(store.Repos(), store, d, zerolog.Nop()),
		dispatcher: d,
		notified:   rec,
	}
}

func ptr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) purchase(t *testing.T, partial bool, lines ...dto.PurchaseItemRequest) *dto.PurchaseResponse {
	t.Helper()
	p, err := f.purchases.Create(context.Background(), ptr("user-1"), dto.CreatePurchaseRequest{
		SupplierID:            "sup-1",
		DebtType:              entity.DebtTypeCompromiso,
		AllowsPartialDelivery: partial,
		Items:                 lines,
	})
	require.NoError(t, err)
	return p
}

func line(productID, qty, price string) dto.PurchaseItemRequest {
	return dto.PurchaseItemRequest{ProductID: productID, Quantity: dec(qty), UnitPrice: dec(price), UnitCost: dec(price)}
}

func TestPurchaseCreate_CalculaTotalYNumera(t *testing.T) {
	f := newFixture(t)

	p := f.purchase(t, true, line("prod-1", "2", "100.00"), line("prod-2", "1", "50.00"))

	assert.Equal(t, entity.PurchaseStatusPending, p.Status)
	assert.True(t, dec("250").Equal(p.TotalAmount), p.TotalAmount.String())
	assert.True(t, p.TotalAmount.Equal(p.CommitmentAmount))
	assert.True(t, p.DebtAmount.IsZero())
	yy := strconv.Itoa(time.Now().Year() % 100)
	assert.Equal(t, "COMP"+yy+"000001", p.Number)
	for _, it := range p.Items {
		assert.True(t, it.ReceivedQuantity.IsZero())
		assert.True(t, it.Quantity.Equal(it.PendingQuantity))
	}

	second := f.purchase(t, true, line("prod-1", "1", "10"))
	assert.Equal(t, "COMP"+yy+"000002", second.Number)
}

func TestPurchaseCreate_ValidaEntrada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.purchases.Create(ctx, nil, dto.CreatePurchaseRequest{SupplierID: "sup-1", DebtType: "otro", Items: []dto.PurchaseItemRequest{line("prod-1", "1", "1")}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.purchases.Create(ctx, nil, dto.CreatePurchaseRequest{SupplierID: "sup-1", DebtType: entity.DebtTypeCompromiso, Items: []dto.PurchaseItemRequest{line("prod-1", "0", "1")}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.purchases.Create(ctx, nil, dto.CreatePurchaseRequest{SupplierID: "sup-9", DebtType: entity.DebtTypeCompromiso, Items: []dto.PurchaseItemRequest{line("prod-1", "1", "1")}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.purchases.Create(ctx, nil, dto.CreatePurchaseRequest{SupplierID: "sup-1", DebtType: entity.DebtTypeCompromiso, Items: []dto.PurchaseItemRequest{line("prod-9", "1", "1")}})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPurchaseUpdate_TransicionInvalidaNoModifica(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, true, line("prod-1", "10", "5"))

	_, err := f.purchases.Update(ctx, p.ID, dto.UpdatePurchaseRequest{
		Status: dto.Some(entity.PurchaseStatusReceived),
		Notes:  dto.Some("no debería guardarse"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	got, err := f.purchases.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseStatusPending, got.Status)
	assert.Nil(t, got.Notes)
}

func TestPurchaseUpdate_ConfirmaYRepartirImportes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, true, line("prod-1", "10", "5"))

	got, err := f.purchases.Update(ctx, p.ID, dto.UpdatePurchaseRequest{
		Status:   dto.Some(entity.PurchaseStatusConfirmed),
		DebtType: dto.Some(entity.DebtTypeDeudaDirecta),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseStatusConfirmed, got.Status)
	assert.NotNil(t, got.ConfirmedAt)
	assert.True(t, dec("50").Equal(got.DebtAmount))
	assert.True(t, got.CommitmentAmount.IsZero())

	_, err = f.purchases.Update(ctx, p.ID, dto.UpdatePurchaseRequest{
		CommitmentAmount: dto.Some(dec("20")),
		DebtAmount:       dto.Some(dec("20")),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	got, err = f.purchases.Update(ctx, p.ID, dto.UpdatePurchaseRequest{
		CommitmentAmount: dto.Some(dec("20")),
		DebtAmount:       dto.Some(dec("30")),
		Notes:            dto.Some("pago en dos partes"),
	})
	require.NoError(t, err)
	assert.True(t, dec("20").Equal(got.CommitmentAmount))
	require.NotNil(t, got.Notes)

	got, err = f.purchases.Update(ctx, p.ID, dto.UpdatePurchaseRequest{Notes: dto.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, got.Notes)
}

func TestPurchaseDelete_ConRemitosAsociados(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.purchase(t, true, line("prod-1", "10", "5"))
	_, err := f.notes.Create(ctx, nil, dto.CreateDeliveryNoteRequest{
		SupplierID: "sup-1",
		PurchaseID: &p.ID,
		Items:      []dto.DeliveryNoteItemRequest{{PurchaseItemID: &p.Items[0].ID, Quantity: dec("4")}},
	})
	require.NoError(t, err)

	err = f.purchases.Delete(ctx, p.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	other := f.purchase(t, true, line("prod-2", "1", "1"))
	require.NoError(t, f.purchases.Delete(ctx, other.ID))
	_, err = f.purchases.GetByID(ctx, other.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPurchaseDelete_ConFactura(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, true, line("prod-1", "10", "5"))
	f.store.AddInvoice(&entity.SupplierInvoice{ID: "inv-1", SupplierID: "sup-1", PurchaseID: &p.ID, Total: dec("50")})

	err := f.purchases.Delete(context.Background(), p.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestPurchaseList_FiltraPorEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.purchase(t, true, line("prod-1", "1", "1"))
	f.purchase(t, true, line("prod-2", "1", "1"))
	_, err := f.purchases.Update(ctx, a.ID, dto.UpdatePurchaseRequest{Status: dto.Some(entity.PurchaseStatusConfirmed)})
	require.NoError(t, err)

	list, err := f.purchases.List(ctx, "sup-1", entity.PurchaseStatusConfirmed, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, a.ID, list.Items[0].ID)
	assert.Equal(t, 20, list.Page.Limit)
}
