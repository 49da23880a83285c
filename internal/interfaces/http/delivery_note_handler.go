package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/application/purchasing"
)

// DeliveryNoteHandler remitos de proveedor (protegido).
type DeliveryNoteHandler struct {
	uc *purchasing.DeliveryNoteUseCase
}

// NewDeliveryNoteHandler construye el handler.
func NewDeliveryNoteHandler(uc *purchasing.DeliveryNoteUseCase) *DeliveryNoteHandler {
	return &DeliveryNoteHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar remito de proveedor
// @Description  Concilia las cantidades recibidas contra la compra vinculada.
// @Tags         delivery-notes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDeliveryNoteRequest  true  "Remito con ítems"
// @Success      201   {object}  dto.DeliveryNoteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/delivery-notes [post]
func (h *DeliveryNoteHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDeliveryNoteRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener remito de proveedor
// @Tags         delivery-notes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del remito"
// @Success      200  {object}  dto.DeliveryNoteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/delivery-notes/{id} [get]
func (h *DeliveryNoteHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddItem POST /api/delivery-notes/:id/items
func (h *DeliveryNoteHandler) AddItem(c *fiber.Ctx) error {
	var in dto.DeliveryNoteItemRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AddItem(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateItem PATCH /api/delivery-notes/:id/items/:itemId
func (h *DeliveryNoteHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateDeliveryNoteItemRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateItem(c.UserContext(), c.Params("id"), c.Params("itemId"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteItem DELETE /api/delivery-notes/:id/items/:itemId
func (h *DeliveryNoteHandler) DeleteItem(c *fiber.Ctx) error {
	out, err := h.uc.DeleteItem(c.UserContext(), c.Params("id"), c.Params("itemId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Anular remito de proveedor
// @Description  Sus cantidades dejan de contar como recibidas.
// @Tags         delivery-notes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del remito"
// @Success      200  {object}  dto.DeliveryNoteResponse
// @Router       /api/delivery-notes/{id}/cancel [post]
func (h *DeliveryNoteHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.uc.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// LinkInvoice POST /api/delivery-notes/:id/invoice
func (h *DeliveryNoteHandler) LinkInvoice(c *fiber.Ctx) error {
	var in dto.LinkInvoiceRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.LinkInvoice(c.UserContext(), c.Params("id"), in.InvoiceID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RecomputeStatus POST /api/delivery-notes/:id/recompute
func (h *DeliveryNoteHandler) RecomputeStatus(c *fiber.Ctx) error {
	out, err := h.uc.RecomputeStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete DELETE /api/delivery-notes/:id
func (h *DeliveryNoteHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
