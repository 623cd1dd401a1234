package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/domain"
)

// statusFor traduce el código de dominio a status HTTP.
func statusFor(code string) int {
	switch code {
	case "VALIDATION":
		return fiber.StatusBadRequest
	case "NOT_FOUND":
		return fiber.StatusNotFound
	case "INSUFFICIENT_STOCK", "INSUFFICIENT_LOTS", "INSUFFICIENT_LOT_CAPACITY",
		"INVALID_STATE_TRANSITION", "CONFLICT":
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError responde {code, message}. Los errores internos no exponen el detalle.
func writeError(c *fiber.Ctx, err error) error {
	code := domain.Code(err)
	status := statusFor(code)
	msg := domain.Message(err)
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
}
