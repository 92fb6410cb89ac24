package services

import (
	"errors"
	"strconv"

	"tournament-funding-system/models"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a domain error to its HTTP response. AppErrors carry a
// stable kind for clients; anything else is a plain 500.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return c.Status(models.HTTPStatus(err)).JSON(fiber.Map{
			"error": appErr.Message,
			"kind":  appErr.Kind,
		})
	}
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}

// formatAmount renders a monetary amount exactly — the shortest decimal that
// round-trips — so error messages never hide an off-by-one-cent condition.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
