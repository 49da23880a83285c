package sales

import (
	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

func toOrderResponse(o *entity.SalesOrder) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:                  o.ID,
		Number:              o.Number,
		ExternalOrderID:     o.ExternalOrderID,
		ExternalOrderNumber: o.ExternalOrderNumber,
		ClientID:            o.ClientID,
		Status:              o.Status,
		StockReserved:       o.StockReserved,
		RemitoStatus:        o.RemitoStatus,
		Source:              o.Source,
		DeliveryAddress:     o.DeliveryAddress,
		DeliveryContact:     o.DeliveryContact,
		DeliveryPhone:       o.DeliveryPhone,
		TransportCompany:    o.TransportCompany,
		TransportCost:       o.TransportCost,
		TotalAmount:         o.TotalAmount,
		Notes:               o.Notes,
		CreatedBy:           o.CreatedBy,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		Items:               make([]dto.OrderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ID:            it.ID,
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			TotalPrice:    it.TotalPrice,
			BatchNumber:   it.BatchNumber,
			StockReserved: it.StockReserved,
		})
	}
	return resp
}

// statusEvent cuerpo de los eventos de cambio de estado.
type statusEvent struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	From   string `json:"from"`
	To     string `json:"to"`
}
