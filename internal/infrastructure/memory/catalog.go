package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

type supplierRepo struct{ v view }

func (r *supplierRepo) GetByID(_ context.Context, id string) (out *entity.Supplier, err error) {
	err = r.v.do(func(st *state) error {
		if s, ok := st.suppliers[id]; ok {
			out = cloneSupplier(s)
		}
		return nil
	})
	return out, err
}

type clientRepo struct{ v view }

func (r *clientRepo) GetByID(_ context.Context, id string) (out *entity.Client, err error) {
	err = r.v.do(func(st *state) error {
		if c, ok := st.clients[id]; ok {
			out = cloneClient(c)
		}
		return nil
	})
	return out, err
}

type productRepo struct{ v view }

func (r *productRepo) GetByID(_ context.Context, id string) (out *entity.Product, err error) {
	err = r.v.do(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = cloneProduct(p)
		}
		return nil
	})
	return out, err
}

func (r *productRepo) Exists(_ context.Context, id string) (ok bool, err error) {
	err = r.v.do(func(st *state) error {
		_, ok = st.products[id]
		return nil
	})
	return ok, err
}

func (r *productRepo) CurrentStock(_ context.Context, id string) (stock decimal.Decimal, err error) {
	err = r.v.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("producto " + id)
		}
		stock = p.Stock
		return nil
	})
	return stock, err
}

// GetStockForUpdate el mutex de la transacción ya serializa el acceso.
func (r *productRepo) GetStockForUpdate(ctx context.Context, id string) (decimal.Decimal, error) {
	return r.CurrentStock(ctx, id)
}

func (r *productRepo) AdjustStock(_ context.Context, id string, delta decimal.Decimal) error {
	return r.v.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("producto " + id)
		}
		p.Stock = p.Stock.Add(delta)
		return nil
	})
}

type sequenceRepo struct{ v view }

func (r *sequenceRepo) Next(_ context.Context, prefix string, year int) (n int64, err error) {
	err = r.v.do(func(st *state) error {
		key := fmt.Sprintf("%s-%d", prefix, year)
		st.sequences[key]++
		n = st.sequences[key]
		return nil
	})
	return n, err
}

type invoiceRepo struct{ v view }

func (r *invoiceRepo) GetByID(_ context.Context, id string) (out *entity.SupplierInvoice, err error) {
	err = r.v.do(func(st *state) error {
		if inv, ok := st.invoices[id]; ok {
			out = cloneInvoice(inv)
		}
		return nil
	})
	return out, err
}

func (r *invoiceRepo) CountByPurchase(_ context.Context, purchaseID string) (n int, err error) {
	err = r.v.do(func(st *state) error {
		for _, inv := range st.invoices {
			if inv.PurchaseID != nil && *inv.PurchaseID == purchaseID {
				n++
			}
		}
		return nil
	})
	return n, err
}

// page aplica offset y limit sobre una lista ya ordenada. limit <= 0 no corta.
func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// sortDesc ordena por fecha descendente y, a igual fecha, por ID.
func sortDesc[T any](list []T, key func(T) (int64, string)) {
	sort.Slice(list, func(i, j int) bool {
		ti, idi := key(list[i])
		tj, idj := key(list[j])
		if ti != tj {
			return ti > tj
		}
		return idi < idj
	})
}

func sortStable(list []*entity.TrazabilidadEntry) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].StageStart.Before(list[j].StageStart) })
}
