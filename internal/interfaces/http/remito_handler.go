package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/application/logistics"
)

// RemitoHandler remitos de salida (protegido).
type RemitoHandler struct {
	uc *logistics.RemitoUseCase
}

// NewRemitoHandler construye el handler.
func NewRemitoHandler(uc *logistics.RemitoUseCase) *RemitoHandler {
	return &RemitoHandler{uc: uc}
}

// Create godoc
// @Summary      Crear remito de salida
// @Tags         remitos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRemitoRequest  true  "Remito con ítems"
// @Success      201   {object}  dto.RemitoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/remitos [post]
func (h *RemitoHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRemitoRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID GET /api/remitos/:id
func (h *RemitoHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List GET /api/remitos?order_id=&status=
func (h *RemitoHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), c.Query("order_id"), c.Query("status"), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar remito (parcial)
// @Description  Un cambio de estado cierra las etapas abiertas y registra una nueva por ítem.
// @Tags         remitos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del remito"
// @Param        body  body  dto.UpdateRemitoRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.RemitoResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/remitos/{id} [patch]
func (h *RemitoHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateRemitoRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete DELETE /api/remitos/:id
func (h *RemitoHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Tracking godoc
// @Summary      Seguimiento del remito
// @Tags         remitos
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del remito"
// @Success      200  {object}  dto.TrackingResponse
// @Router       /api/remitos/{id}/tracking [get]
func (h *RemitoHandler) Tracking(c *fiber.Ctx) error {
	out, err := h.uc.GetTracking(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Descargar remito en PDF
// @Tags         remitos
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del remito"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/remitos/{id}/pdf [get]
func (h *RemitoHandler) PDF(c *fiber.Ctx) error {
	out, filename, err := h.uc.RenderPDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(out)
}
