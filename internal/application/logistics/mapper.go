package logistics

import (
	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
)

func toRemitoResponse(r *entity.OutboundRemito) *dto.RemitoResponse {
	resp := &dto.RemitoResponse{
		ID:                r.ID,
		Number:            r.Number,
		OrderID:           r.OrderID,
		ClientID:          r.ClientID,
		RemitoType:        r.RemitoType,
		Status:            r.Status,
		DeliveryAddress:   r.DeliveryAddress,
		DeliveryContact:   r.DeliveryContact,
		DeliveryPhone:     r.DeliveryPhone,
		TransportCompany:  r.TransportCompany,
		TrackingNumber:    r.TrackingNumber,
		TransportCost:     r.TransportCost,
		GenerationDate:    r.GenerationDate,
		DispatchDate:      r.DispatchDate,
		DeliveryDate:      r.DeliveryDate,
		TotalProducts:     r.TotalProducts,
		TotalQuantity:     r.TotalQuantity,
		TotalValue:        r.TotalValue,
		SignatureName:     r.SignatureName,
		SignatureDocument: r.SignatureDocument,
		PhotoURL:          r.PhotoURL,
		Notes:             r.Notes,
		CreatedBy:         r.CreatedBy,
		Items:             make([]dto.RemitoItemResponse, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		resp.Items = append(resp.Items, dto.RemitoItemResponse{
			ID:                it.ID,
			ProductID:         it.ProductID,
			Quantity:          it.Quantity,
			UnitPrice:         it.UnitPrice,
			TotalPrice:        it.TotalPrice,
			Status:            it.Status,
			PreparedQuantity:  it.PreparedQuantity,
			DeliveredQuantity: it.DeliveredQuantity,
			ReturnedQuantity:  it.ReturnedQuantity,
		})
	}
	return resp
}

func toTrazabilidadResponse(e *entity.TrazabilidadEntry) dto.TrazabilidadResponse {
	return dto.TrazabilidadResponse{
		ID:                e.ID,
		ProductID:         e.ProductID,
		Stage:             e.Stage,
		Location:          e.Location,
		ResponsibleUserID: e.ResponsibleUserID,
		ResponsibleName:   e.ResponsibleName,
		StageStart:        e.StageStart,
		StageEnd:          e.StageEnd,
		Temperature:       e.Temperature,
		Humidity:          e.Humidity,
		QualityNotes:      e.QualityNotes,
		IsAutomatic:       e.IsAutomatic,
		Notes:             e.Notes,
	}
}

// statusEvent cuerpo del evento remito.status_changed.
type statusEvent struct {
	ID      string `json:"id"`
	Number  string `json:"number"`
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}
