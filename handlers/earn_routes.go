// handlers/earn_routes.go
package handlers

import (
	"rework-vault/middleware"
	"rework-vault/services"

	"github.com/gofiber/fiber/v2"
)

// SetupEarnRoutes registers the endpoints that report engagement events.
func SetupEarnRoutes(router fiber.Router, earn *services.EarnRulesEngine) {
	router.Post("/daily-bonus", func(c *fiber.Ctx) error {
		res, err := earn.RecordEvent(c.UserContext(), middleware.UserID(c), services.EarnEvent{Kind: services.EarnDailyBonus})
		if err != nil {
			return respondError(c, err, "failed to claim daily bonus")
		}
		message := "Daily bonus already claimed today"
		if res.Credited {
			message = "Daily bonus claimed"
		}
		return c.JSON(fiber.Map{
			"success":       true,
			"credited":      res.Credited,
			"points_earned": res.PointsEarned,
			"user_points":   res.Balance,
			"message":       message,
		})
	})

	router.Post("/track/champion-view", func(c *fiber.Ctx) error {
		var req struct {
			ChampionID *int64 `json:"champion_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.ChampionID == nil {
			return badRequest(c, "champion_id is required", nil)
		}
		res, err := earn.RecordEvent(c.UserContext(), middleware.UserID(c), services.EarnEvent{
			Kind:      services.EarnChampionView,
			SubjectID: req.ChampionID,
		})
		if err != nil {
			return respondError(c, err, "failed to track champion view")
		}
		return c.JSON(earnBody(res))
	})

	router.Post("/track/comment", func(c *fiber.Ctx) error {
		res, err := earn.RecordEvent(c.UserContext(), middleware.UserID(c), services.EarnEvent{Kind: services.EarnCommentPosted})
		if err != nil {
			return respondError(c, err, "failed to track comment")
		}
		return c.JSON(earnBody(res))
	})
}

func earnBody(res *services.EarnResult) fiber.Map {
	return fiber.Map{
		"success":       true,
		"credited":      res.Credited,
		"points_earned": res.PointsEarned,
		"user_points":   res.Balance,
	}
}
