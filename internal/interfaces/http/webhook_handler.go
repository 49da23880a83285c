package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/application/sales"
)

// WebhookHandler entrada del canal de venta externo (secreto compartido, sin JWT).
type WebhookHandler struct {
	orders *sales.OrderUseCase
}

// NewWebhookHandler construye el handler.
func NewWebhookHandler(orders *sales.OrderUseCase) *WebhookHandler {
	return &WebhookHandler{orders: orders}
}

// ImportOrder godoc
// @Summary      Importar pedido externo
// @Description  Idempotente por external_order_id / external_order_number: 201 si se creó, 200 si ya existía.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Secret  header  string  true  "Secreto compartido"
// @Param        body  body  dto.CreateOrderRequest  true  "Pedido"
// @Success      201   {object}  dto.CreateOrderResult
// @Success      200   {object}  dto.CreateOrderResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /webhooks/orders [post]
func (h *WebhookHandler) ImportOrder(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.orders.ImportExternal(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return writeOrderResult(c, out)
}
