package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

type orderRepo struct{ v view }

func (r *orderRepo) Create(_ context.Context, o *entity.SalesOrder) error {
	return r.v.do(func(st *state) error {
		for _, other := range st.orders {
			if other.Number == o.Number {
				return fmt.Errorf("%w: pedido %s", domain.ErrDuplicate, o.Number)
			}
			if o.ExternalOrderID != nil && other.ExternalOrderID != nil && *other.ExternalOrderID == *o.ExternalOrderID {
				return fmt.Errorf("%w: pedido externo %s", domain.ErrDuplicate, *o.ExternalOrderID)
			}
		}
		c := cloneOrder(o)
		for _, it := range c.Items {
			it.OrderID = c.ID
		}
		st.orders[o.ID] = c
		return nil
	})
}

func (r *orderRepo) GetByID(_ context.Context, id string) (out *entity.SalesOrder, err error) {
	err = r.v.do(func(st *state) error {
		if o, ok := st.orders[id]; ok {
			out = cloneOrder(o)
		}
		return nil
	})
	return out, err
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.SalesOrder, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) GetByExternalID(_ context.Context, externalID string) (*entity.SalesOrder, error) {
	return r.first(func(o *entity.SalesOrder) bool {
		return o.ExternalOrderID != nil && *o.ExternalOrderID == externalID
	})
}

func (r *orderRepo) GetByExternalNumber(_ context.Context, externalNumber string) (*entity.SalesOrder, error) {
	return r.first(func(o *entity.SalesOrder) bool {
		return o.ExternalOrderNumber != nil && *o.ExternalOrderNumber == externalNumber
	})
}

// first el más antiguo que cumple match.
func (r *orderRepo) first(match func(*entity.SalesOrder) bool) (out *entity.SalesOrder, err error) {
	err = r.v.do(func(st *state) error {
		var found *entity.SalesOrder
		for _, o := range st.orders {
			if !match(o) {
				continue
			}
			if found == nil || o.CreatedAt.Before(found.CreatedAt) {
				found = o
			}
		}
		if found != nil {
			out = cloneOrder(found)
		}
		return nil
	})
	return out, err
}

func (r *orderRepo) Update(_ context.Context, o *entity.SalesOrder) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok {
			return domain.NotFound("pedido " + o.ID)
		}
		c := cloneOrder(o)
		c.Number = cur.Number
		c.ExternalOrderID = cur.ExternalOrderID
		c.ExternalOrderNumber = cur.ExternalOrderNumber
		c.CreatedAt = cur.CreatedAt
		c.Items = cur.Items
		st.orders[o.ID] = c
		return nil
	})
}

func (r *orderRepo) UpdateItemReserved(_ context.Context, itemID string, reserved bool) error {
	return r.v.do(func(st *state) error {
		for _, o := range st.orders {
			for _, it := range o.Items {
				if it.ID == itemID {
					it.StockReserved = reserved
					return nil
				}
			}
		}
		return nil
	})
}

func (r *orderRepo) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		delete(st.orders, id)
		return nil
	})
}

func (r *orderRepo) List(_ context.Context, f repository.OrderFilter) (out []*entity.SalesOrder, err error) {
	err = r.v.do(func(st *state) error {
		for _, o := range st.orders {
			if f.ClientID != "" && o.ClientID != f.ClientID {
				continue
			}
			if f.Status != "" && o.Status != f.Status {
				continue
			}
			out = append(out, cloneOrder(o))
		}
		return nil
	})
	sortDesc(out, func(o *entity.SalesOrder) (int64, string) { return o.CreatedAt.UnixNano(), o.ID })
	return page(out, f.Limit, f.Offset), err
}

type remitoRepo struct{ v view }

func (r *remitoRepo) Create(_ context.Context, rm *entity.OutboundRemito) error {
	return r.v.do(func(st *state) error {
		for _, other := range st.remitos {
			if other.OrderID == rm.OrderID && other.Status != entity.RemitoCancelado {
				return fmt.Errorf("%w: remito para pedido %s", domain.ErrDuplicate, rm.OrderID)
			}
			if other.Number == rm.Number {
				return fmt.Errorf("%w: remito %s", domain.ErrDuplicate, rm.Number)
			}
		}
		c := cloneRemito(rm)
		for _, it := range c.Items {
			it.RemitoID = c.ID
		}
		st.remitos[rm.ID] = c
		return nil
	})
}

func (r *remitoRepo) GetByID(_ context.Context, id string) (out *entity.OutboundRemito, err error) {
	err = r.v.do(func(st *state) error {
		if rm, ok := st.remitos[id]; ok {
			out = cloneRemito(rm)
		}
		return nil
	})
	return out, err
}

func (r *remitoRepo) GetForUpdate(ctx context.Context, id string) (*entity.OutboundRemito, error) {
	return r.GetByID(ctx, id)
}

func (r *remitoRepo) GetByOrderID(_ context.Context, orderID string) (out *entity.OutboundRemito, err error) {
	err = r.v.do(func(st *state) error {
		for _, rm := range st.remitos {
			if rm.OrderID == orderID && rm.Status != entity.RemitoCancelado {
				out = cloneRemito(rm)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *remitoRepo) Update(_ context.Context, rm *entity.OutboundRemito) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.remitos[rm.ID]
		if !ok {
			return domain.NotFound("remito " + rm.ID)
		}
		c := cloneRemito(rm)
		c.Number = cur.Number
		c.OrderID = cur.OrderID
		c.ClientID = cur.ClientID
		c.RemitoType = cur.RemitoType
		c.GenerationDate = cur.GenerationDate
		c.CreatedBy = cur.CreatedBy
		c.Items = cur.Items
		st.remitos[rm.ID] = c
		return nil
	})
}

func (r *remitoRepo) UpdateItem(_ context.Context, it *entity.RemitoItem) error {
	return r.v.do(func(st *state) error {
		for _, rm := range st.remitos {
			for _, cur := range rm.Items {
				if cur.ID == it.ID {
					cur.Status = it.Status
					cur.PreparedQuantity = it.PreparedQuantity
					cur.DeliveredQuantity = it.DeliveredQuantity
					cur.ReturnedQuantity = it.ReturnedQuantity
					return nil
				}
			}
		}
		return nil
	})
}

func (r *remitoRepo) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		delete(st.remitos, id)
		return nil
	})
}

func (r *remitoRepo) List(_ context.Context, f repository.RemitoFilter) (out []*entity.OutboundRemito, err error) {
	err = r.v.do(func(st *state) error {
		for _, rm := range st.remitos {
			if f.OrderID != "" && rm.OrderID != f.OrderID {
				continue
			}
			if f.Status != "" && rm.Status != f.Status {
				continue
			}
			out = append(out, cloneRemito(rm))
		}
		return nil
	})
	sortDesc(out, func(rm *entity.OutboundRemito) (int64, string) { return rm.GenerationDate.UnixNano(), rm.ID })
	return page(out, f.Limit, f.Offset), err
}

type trazabilidadRepo struct{ v view }

func (r *trazabilidadRepo) Append(_ context.Context, e *entity.TrazabilidadEntry) error {
	return r.v.do(func(st *state) error {
		st.traza = append(st.traza, cloneEntry(e))
		return nil
	})
}

func (r *trazabilidadRepo) CloseOpen(_ context.Context, remitoID string, at time.Time) error {
	return r.v.do(func(st *state) error {
		for _, e := range st.traza {
			if e.RemitoID == remitoID && e.StageEnd == nil {
				end := at
				e.StageEnd = &end
			}
		}
		return nil
	})
}

// ListByRemito conserva el orden de inserción entre entradas con el mismo stage_start.
func (r *trazabilidadRepo) ListByRemito(_ context.Context, remitoID string) (out []*entity.TrazabilidadEntry, err error) {
	err = r.v.do(func(st *state) error {
		for _, e := range st.traza {
			if e.RemitoID == remitoID {
				out = append(out, cloneEntry(e))
			}
		}
		return nil
	})
	sortStable(out)
	return out, err
}

func (r *trazabilidadRepo) DeleteByRemito(_ context.Context, remitoID string) error {
	return r.v.do(func(st *state) error {
		kept := st.traza[:0]
		for _, e := range st.traza {
			if e.RemitoID != remitoID {
				kept = append(kept, e)
			}
		}
		st.traza = kept
		return nil
	})
}
