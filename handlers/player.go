package handlers

import (
	"tournament-funding-system/middleware"
	"tournament-funding-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPlayerRoutes(
	app *fiber.App,
	playerService *services.PlayerService,
	pokerService *services.PokerService,
	notificationService *services.NotificationService,
) {
	userCtx := middleware.UserContextMiddleware()

	// 🔓 Public routes
	app.Get("/players/:user_id", playerService.GetPlayerProfile)
	app.Post("/poker/evaluate", pokerService.EvaluateHandHandler)
	app.Post("/poker/compare", pokerService.CompareHandsHandler)

	// 🔐 Secured routes — require user context (userID)
	app.Post("/players", userCtx, playerService.CreatePlayerProfile)

	app.Get("/notifications", userCtx, func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		notifications, err := notificationService.ListForUser(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch notifications",
				"cause": err.Error(),
			})
		}
		return c.JSON(notifications)
	})
}
