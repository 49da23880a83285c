package purchasing

import (
	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

func toPurchaseResponse(p *entity.PurchaseOrder) *dto.PurchaseResponse {
	resp := &dto.PurchaseResponse{
		ID:                    p.ID,
		Number:                p.Number,
		SupplierID:            p.SupplierID,
		Status:                p.Status,
		DebtType:              p.DebtType,
		TotalAmount:           p.TotalAmount,
		CommitmentAmount:      p.CommitmentAmount,
		DebtAmount:            p.DebtAmount,
		AllowsPartialDelivery: p.AllowsPartialDelivery,
		Notes:                 p.Notes,
		CreatedBy:             p.CreatedBy,
		CreatedAt:             p.CreatedAt,
		ConfirmedAt:           p.ConfirmedAt,
		ReceivedAt:            p.ReceivedAt,
		Items:                 make([]dto.PurchaseItemResponse, 0, len(p.Items)),
	}
	for _, it := range p.Items {
		resp.Items = append(resp.Items, dto.PurchaseItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			ReceivedQuantity: it.ReceivedQuantity,
			PendingQuantity:  it.PendingQuantity(),
			UnitPrice:        it.UnitPrice,
			UnitCost:         it.UnitCost,
			TotalPrice:       it.TotalPrice,
		})
	}
	return resp
}

func toDeliveryNoteResponse(n *entity.SupplierDeliveryNote) *dto.DeliveryNoteResponse {
	resp := &dto.DeliveryNoteResponse{
		ID:             n.ID,
		Number:         n.Number,
		SupplierID:     n.SupplierID,
		PurchaseID:     n.PurchaseID,
		InvoiceID:      n.InvoiceID,
		DeliveryDate:   n.DeliveryDate,
		Status:         n.Status,
		MatchesInvoice: n.MatchesInvoice,
		Notes:          n.Notes,
		CreatedBy:      n.CreatedBy,
		CreatedAt:      n.CreatedAt,
		Items:          make([]dto.DeliveryNoteItemResponse, 0, len(n.Items)),
	}
	for _, it := range n.Items {
		resp.Items = append(resp.Items, dto.DeliveryNoteItemResponse{
			ID:             it.ID,
			ProductID:      it.ProductID,
			PurchaseItemID: it.PurchaseItemID,
			Quantity:       it.Quantity,
			QualityChecked: it.QualityChecked,
			QualityNotes:   it.QualityNotes,
		})
	}
	return resp
}
