// handlers/progression_routes.go
package handlers

import (
	"rework-vault/middleware"
	"rework-vault/services"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressionRoutes registers the read-side progress endpoints. router must
// already enforce RequireUser and EnsureProgressMiddleware.
func SetupProgressionRoutes(router fiber.Router, progression *services.ProgressionService) {
	router.Get("/progress", func(c *fiber.Ctx) error {
		summary, err := progression.GetSummary(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "failed to get progress")
		}
		return c.JSON(summary)
	})

	router.Get("/progress/history", func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		size := c.QueryInt("size", 20)
		history, err := progression.GetHistory(c.UserContext(), middleware.UserID(c), page, size)
		if err != nil {
			return respondError(c, err, "failed to get history")
		}
		return c.JSON(history)
	})

	router.Get("/unlocks/available", func(c *fiber.Ctx) error {
		avail, err := progression.GetAvailableUnlocks(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "failed to get available unlocks")
		}
		return c.JSON(avail)
	})

	router.Get("/unlocks/locked", func(c *fiber.Ctx) error {
		locked, err := progression.GetLockedItems(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "failed to get locked items")
		}
		return c.JSON(locked)
	})
}
