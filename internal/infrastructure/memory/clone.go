package memory

import "github.com/jhoicas/Remitos-api/internal/domain/entity"

func ptr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSupplier(s *entity.Supplier) *entity.Supplier {
	c := *s
	return &c
}

func cloneClient(cl *entity.Client) *entity.Client {
	c := *cl
	return &c
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func cloneInvoice(inv *entity.SupplierInvoice) *entity.SupplierInvoice {
	c := *inv
	c.PurchaseID = ptr(inv.PurchaseID)
	return &c
}

func clonePurchase(p *entity.PurchaseOrder) *entity.PurchaseOrder {
	c := *p
	c.Notes = ptr(p.Notes)
	c.CreatedBy = ptr(p.CreatedBy)
	c.ConfirmedAt = ptr(p.ConfirmedAt)
	c.ReceivedAt = ptr(p.ReceivedAt)
	c.Items = make([]*entity.PurchaseLineItem, 0, len(p.Items))
	for _, it := range p.Items {
		ci := *it
		c.Items = append(c.Items, &ci)
	}
	return &c
}

func cloneNoteItem(it *entity.DeliveryNoteItem) *entity.DeliveryNoteItem {
	c := *it
	c.ProductID = ptr(it.ProductID)
	c.PurchaseItemID = ptr(it.PurchaseItemID)
	c.QualityNotes = ptr(it.QualityNotes)
	return &c
}

func cloneNote(n *entity.SupplierDeliveryNote) *entity.SupplierDeliveryNote {
	c := *n
	c.PurchaseID = ptr(n.PurchaseID)
	c.InvoiceID = ptr(n.InvoiceID)
	c.Notes = ptr(n.Notes)
	c.CreatedBy = ptr(n.CreatedBy)
	c.Items = make([]*entity.DeliveryNoteItem, 0, len(n.Items))
	for _, it := range n.Items {
		c.Items = append(c.Items, cloneNoteItem(it))
	}
	return &c
}

func cloneOrder(o *entity.SalesOrder) *entity.SalesOrder {
	c := *o
	c.ExternalOrderID = ptr(o.ExternalOrderID)
	c.ExternalOrderNumber = ptr(o.ExternalOrderNumber)
	c.Notes = ptr(o.Notes)
	c.CreatedBy = ptr(o.CreatedBy)
	c.Items = make([]*entity.OrderLineItem, 0, len(o.Items))
	for _, it := range o.Items {
		ci := *it
		ci.BatchNumber = ptr(it.BatchNumber)
		c.Items = append(c.Items, &ci)
	}
	return &c
}

func cloneRemito(r *entity.OutboundRemito) *entity.OutboundRemito {
	c := *r
	c.DispatchDate = ptr(r.DispatchDate)
	c.DeliveryDate = ptr(r.DeliveryDate)
	c.Notes = ptr(r.Notes)
	c.CreatedBy = ptr(r.CreatedBy)
	c.Items = make([]*entity.RemitoItem, 0, len(r.Items))
	for _, it := range r.Items {
		ci := *it
		c.Items = append(c.Items, &ci)
	}
	return &c
}

func cloneEntry(e *entity.TrazabilidadEntry) *entity.TrazabilidadEntry {
	c := *e
	c.ResponsibleUserID = ptr(e.ResponsibleUserID)
	c.StageEnd = ptr(e.StageEnd)
	c.Temperature = ptr(e.Temperature)
	c.Humidity = ptr(e.Humidity)
	c.QualityNotes = ptr(e.QualityNotes)
	c.Notes = ptr(e.Notes)
	return &c
}
