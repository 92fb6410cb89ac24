package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the user identity forwarded by the gateway
// and attaches it to the request context. Secured routes require it.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through the gateway with auth context",
			})
		}
		c.Locals("user_id", userID)
		return c.Next()
	}
}
