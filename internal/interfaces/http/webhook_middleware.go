package http

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
)

// HeaderWebhookSecret header con el secreto compartido del canal de venta externo.
const HeaderWebhookSecret = "X-Webhook-Secret"

// RequireWebhookSecret valida el secreto compartido. Con secret vacío el endpoint queda cerrado (503).
//
// Comportamiento:
//   - 503 Service Unavailable → no hay secreto configurado.
//   - 401 Unauthorized → header ausente o distinto.
func RequireWebhookSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "WEBHOOK_DISABLED",
				Message: "importación externa no configurada",
			})
		}
		got := c.Get(HeaderWebhookSecret)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "INVALID_WEBHOOK_SECRET",
				Message: "secreto de webhook inválido",
			})
		}
		return c.Next()
	}
}
