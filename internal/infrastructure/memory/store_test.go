package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
	"github.com/jhoicas/Remitos-api/internal/infrastructure/memory"
)

func newOrder(id string, ext *string) *entity.SalesOrder {
	now := time.Now()
	return &entity.SalesOrder{
		ID:              id,
		Number:          "PED-" + id,
		ExternalOrderID: ext,
		ClientID:        "cli-1",
		Status:          entity.OrderStatusPendientePreparacion,
		RemitoStatus:    entity.RemitoStatusSinRemito,
		Source:          entity.OrderSourceInterno,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items: []*entity.OrderLineItem{
			{ID: id + "-1", OrderID: id, ProductID: "prod-1", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10)},
		},
	}
}

func TestStoreRun_RollbackDejaEstadoIntacto(t *testing.T) {
	s := memory.NewStore()
	s.AddProduct(&entity.Product{ID: "prod-1", Stock: decimal.NewFromInt(5)})
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(r repository.Repos) error {
		require.NoError(t, r.Products.AdjustStock(ctx, "prod-1", decimal.NewFromInt(-3)))
		require.NoError(t, r.Orders.Create(ctx, newOrder("o-1", nil)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stock, err := s.Repos().Products.CurrentStock(ctx, "prod-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5).Equal(stock))
	o, err := s.Repos().Orders.GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestStoreRun_CommitVisibleFuera(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	err := s.Run(ctx, func(r repository.Repos) error {
		n, err := r.Sequences.Next(ctx, "PED", 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return r.Orders.Create(ctx, newOrder("o-1", nil))
	})
	require.NoError(t, err)

	o, err := s.Repos().Orders.GetByID(ctx, "o-1")
	require.NoError(t, err)
	require.NotNil(t, o)
	require.Len(t, o.Items, 1)

	n, err := s.Repos().Sequences.Next(ctx, "PED", 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = s.Repos().Sequences.Next(ctx, "PED", 2027)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "la secuencia reinicia por año")
}

func TestStore_DevuelveCopias(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, s.Repos().Orders.Create(ctx, newOrder("o-1", nil)))

	o, err := s.Repos().Orders.GetByID(ctx, "o-1")
	require.NoError(t, err)
	o.Status = entity.OrderStatusCancelado
	o.Items[0].Quantity = decimal.NewFromInt(99)

	again, err := s.Repos().Orders.GetByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPendientePreparacion, again.Status)
	assert.True(t, decimal.NewFromInt(2).Equal(again.Items[0].Quantity))
}

func TestStore_UnicidadDePedidoYRemito(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	ext := "WEB-1"
	repos := s.Repos()
	require.NoError(t, repos.Orders.Create(ctx, newOrder("o-1", &ext)))

	err := repos.Orders.Create(ctx, newOrder("o-2", &ext))
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	found, err := repos.Orders.GetByExternalID(ctx, ext)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "o-1", found.ID)

	rem := &entity.OutboundRemito{ID: "r-1", Number: "REM26000001", OrderID: "o-1", Status: entity.RemitoGenerado, GenerationDate: time.Now()}
	require.NoError(t, repos.Remitos.Create(ctx, rem))
	second := &entity.OutboundRemito{ID: "r-2", Number: "REM26000002", OrderID: "o-1", Status: entity.RemitoGenerado, GenerationDate: time.Now()}
	assert.True(t, errors.Is(repos.Remitos.Create(ctx, second), domain.ErrDuplicate))

	// un remito anulado no ocupa el pedido
	rem.Status = entity.RemitoCancelado
	require.NoError(t, repos.Remitos.Update(ctx, rem))
	active, err := repos.Remitos.GetByOrderID(ctx, "o-1")
	require.NoError(t, err)
	assert.Nil(t, active)
	require.NoError(t, repos.Remitos.Create(ctx, second))
	active, err = repos.Remitos.GetByOrderID(ctx, "o-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "r-2", active.ID)
}

func TestStoreProducts_StockInexistente(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	_, err := s.Repos().Products.CurrentStock(ctx, "prod-9")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	err = s.Repos().Products.AdjustStock(ctx, "prod-9", decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStoreTrazabilidad_CierraEtapasAbiertas(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	repos := s.Repos()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Trazabilidad.Append(ctx, &entity.TrazabilidadEntry{ID: "t-1", RemitoID: "r-1", Stage: entity.StagePreparacion, StageStart: start}))
	require.NoError(t, repos.Trazabilidad.Append(ctx, &entity.TrazabilidadEntry{ID: "t-2", RemitoID: "r-2", Stage: entity.StagePreparacion, StageStart: start}))
	require.NoError(t, repos.Trazabilidad.CloseOpen(ctx, "r-1", start.Add(time.Hour)))
	require.NoError(t, repos.Trazabilidad.Append(ctx, &entity.TrazabilidadEntry{ID: "t-3", RemitoID: "r-1", Stage: entity.StageTransito, StageStart: start.Add(time.Hour)}))

	list, err := repos.Trazabilidad.ListByRemito(ctx, "r-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t-1", list[0].ID)
	require.NotNil(t, list[0].StageEnd)
	assert.True(t, start.Add(time.Hour).Equal(*list[0].StageEnd))
	assert.Nil(t, list[1].StageEnd)

	other, err := repos.Trazabilidad.ListByRemito(ctx, "r-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Nil(t, other[0].StageEnd)
}
