package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/domain"
)

var kindStatus = map[string]int{
	domain.KindNotFound:          fiber.StatusNotFound,
	domain.KindValidation:        fiber.StatusBadRequest,
	domain.KindInvalidTransition: fiber.StatusUnprocessableEntity,
	domain.KindConflict:          fiber.StatusConflict,
	domain.KindUnauthorized:      fiber.StatusUnauthorized,
	domain.KindForbidden:         fiber.StatusForbidden,
	domain.KindStorage:           fiber.StatusInternalServerError,
	domain.KindInternal:          fiber.StatusInternalServerError,
}

// writeError traduce un error de dominio a la respuesta HTTP. Los 5xx no exponen el detalle.
func writeError(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	msg := err.Error()
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
		msg = "error interno, intente más tarde"
	}
	return c.Status(status).JSON(dto.ErrorResponse{
		Code:    kind,
		Message: msg,
		Details: domain.ValidationItems(err),
	})
}
