package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/application/logistics"
	"github.com/jhoicas/Remitos-api/internal/application/sales"
)

// OrderHandler pedidos de venta (protegido).
type OrderHandler struct {
	uc      *sales.OrderUseCase
	remitos *logistics.RemitoUseCase
}

// NewOrderHandler construye el handler. remitos atiende POST /api/orders/:id/remito.
func NewOrderHandler(uc *sales.OrderUseCase, remitos *logistics.RemitoUseCase) *OrderHandler {
	return &OrderHandler{uc: uc, remitos: remitos}
}

// Create godoc
// @Summary      Crear pedido
// @Description  Con external_order_id / external_order_number ya registrados devuelve el existente (200).
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "Pedido con líneas"
// @Success      201   {object}  dto.CreateOrderResult
// @Success      200   {object}  dto.CreateOrderResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return writeOrderResult(c, out)
}

// GetByID godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        client_id  query  string  false  "Cliente"
// @Param        status     query  string  false  "Estado"
// @Success      200  {object}  dto.OrderListResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), c.Query("client_id"), c.Query("status"), pageFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar pedido (parcial)
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del pedido"
// @Param        body  body  dto.UpdateOrderRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.OrderResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [patch]
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReserveStock POST /api/orders/:id/reserve-stock
func (h *OrderHandler) ReserveStock(c *fiber.Ctx) error {
	out, err := h.uc.ReserveStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GenerateRemito godoc
// @Summary      Generar remito desde el pedido
// @Description  Requiere stock reservado en todas las líneas. Un solo remito por pedido.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      201  {object}  dto.RemitoResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/remito [post]
func (h *OrderHandler) GenerateRemito(c *fiber.Ctx) error {
	out, err := h.remitos.GenerateFromOrder(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Delete DELETE /api/orders/:id
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func writeOrderResult(c *fiber.Ctx, out *dto.CreateOrderResult) error {
	if out.Created {
		return c.Status(fiber.StatusCreated).JSON(out)
	}
	return c.Status(fiber.StatusOK).JSON(out)
}
