package memory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

type purchaseRepo struct{ v view }

func (r *purchaseRepo) Create(_ context.Context, p *entity.PurchaseOrder) error {
	return r.v.do(func(st *state) error {
		for _, other := range st.purchases {
			if other.Number == p.Number {
				return fmt.Errorf("%w: compra %s", domain.ErrDuplicate, p.Number)
			}
		}
		c := clonePurchase(p)
		for _, it := range c.Items {
			it.PurchaseID = c.ID
		}
		st.purchases[p.ID] = c
		return nil
	})
}

func (r *purchaseRepo) GetByID(_ context.Context, id string) (out *entity.PurchaseOrder, err error) {
	err = r.v.do(func(st *state) error {
		if p, ok := st.purchases[id]; ok {
			out = clonePurchase(p)
		}
		return nil
	})
	return out, err
}

func (r *purchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.GetByID(ctx, id)
}

// Update reemplaza la cabecera conservando las líneas guardadas.
func (r *purchaseRepo) Update(_ context.Context, p *entity.PurchaseOrder) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.purchases[p.ID]
		if !ok {
			return domain.NotFound("compra " + p.ID)
		}
		c := clonePurchase(p)
		c.Items = cur.Items
		st.purchases[p.ID] = c
		return nil
	})
}

func (r *purchaseRepo) UpdateItemReceived(_ context.Context, itemID string, received decimal.Decimal) error {
	return r.v.do(func(st *state) error {
		for _, p := range st.purchases {
			if it := p.Item(itemID); it != nil {
				it.ReceivedQuantity = received
				return nil
			}
		}
		return nil
	})
}

func (r *purchaseRepo) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		delete(st.purchases, id)
		return nil
	})
}

func (r *purchaseRepo) List(_ context.Context, f repository.PurchaseFilter) (out []*entity.PurchaseOrder, err error) {
	err = r.v.do(func(st *state) error {
		for _, p := range st.purchases {
			if f.SupplierID != "" && p.SupplierID != f.SupplierID {
				continue
			}
			if f.Status != "" && p.Status != f.Status {
				continue
			}
			out = append(out, clonePurchase(p))
		}
		return nil
	})
	sortDesc(out, func(p *entity.PurchaseOrder) (int64, string) { return p.CreatedAt.UnixNano(), p.ID })
	return page(out, f.Limit, f.Offset), err
}

type deliveryNoteRepo struct{ v view }

func (r *deliveryNoteRepo) Create(_ context.Context, n *entity.SupplierDeliveryNote) error {
	return r.v.do(func(st *state) error {
		for _, other := range st.notes {
			if other.Number == n.Number {
				return fmt.Errorf("%w: remito de proveedor %s", domain.ErrDuplicate, n.Number)
			}
		}
		st.notes[n.ID] = cloneNote(n)
		return nil
	})
}

func (r *deliveryNoteRepo) GetByID(_ context.Context, id string) (out *entity.SupplierDeliveryNote, err error) {
	err = r.v.do(func(st *state) error {
		if n, ok := st.notes[id]; ok {
			out = cloneNote(n)
		}
		return nil
	})
	return out, err
}

func (r *deliveryNoteRepo) Update(_ context.Context, n *entity.SupplierDeliveryNote) error {
	return r.v.do(func(st *state) error {
		cur, ok := st.notes[n.ID]
		if !ok {
			return domain.NotFound("remito de proveedor " + n.ID)
		}
		cur.Status = n.Status
		cur.InvoiceID = ptr(n.InvoiceID)
		cur.MatchesInvoice = n.MatchesInvoice
		cur.Notes = ptr(n.Notes)
		cur.UpdatedAt = n.UpdatedAt
		return nil
	})
}

func (r *deliveryNoteRepo) CreateItem(_ context.Context, it *entity.DeliveryNoteItem) error {
	return r.v.do(func(st *state) error {
		n, ok := st.notes[it.DeliveryNoteID]
		if !ok {
			return domain.NotFound("remito de proveedor " + it.DeliveryNoteID)
		}
		n.Items = append(n.Items, cloneNoteItem(it))
		return nil
	})
}

func (r *deliveryNoteRepo) UpdateItem(_ context.Context, it *entity.DeliveryNoteItem) error {
	return r.v.do(func(st *state) error {
		for _, n := range st.notes {
			if cur := n.Item(it.ID); cur != nil {
				cur.Quantity = it.Quantity
				cur.QualityChecked = it.QualityChecked
				cur.QualityNotes = ptr(it.QualityNotes)
				return nil
			}
		}
		return nil
	})
}

func (r *deliveryNoteRepo) DeleteItem(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		for _, n := range st.notes {
			for i, it := range n.Items {
				if it.ID == id {
					n.Items = append(n.Items[:i], n.Items[i+1:]...)
					return nil
				}
			}
		}
		return nil
	})
}

func (r *deliveryNoteRepo) Delete(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		delete(st.notes, id)
		return nil
	})
}

func (r *deliveryNoteRepo) ReceivedByPurchaseItem(_ context.Context, purchaseID string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	err := r.v.do(func(st *state) error {
		p, ok := st.purchases[purchaseID]
		if !ok {
			return nil
		}
		lines := make(map[string]bool, len(p.Items))
		for _, it := range p.Items {
			lines[it.ID] = true
		}
		for _, n := range st.notes {
			if n.Cancelled() {
				continue
			}
			for _, it := range n.Items {
				if it.PurchaseItemID == nil || !lines[*it.PurchaseItemID] {
					continue
				}
				out[*it.PurchaseItemID] = out[*it.PurchaseItemID].Add(it.Quantity)
			}
		}
		return nil
	})
	return out, err
}

func (r *deliveryNoteRepo) CountByPurchase(_ context.Context, purchaseID string) (n int, err error) {
	err = r.v.do(func(st *state) error {
		for _, note := range st.notes {
			if note.PurchaseID != nil && *note.PurchaseID == purchaseID {
				n++
			}
		}
		return nil
	})
	return n, err
}
