// handlers/unlock_routes.go
package handlers

import (
	"rework-vault/middleware"
	"rework-vault/models"
	"rework-vault/services"

	"github.com/gofiber/fiber/v2"
)

// SetupUnlockRoutes registers the spend endpoints.
func SetupUnlockRoutes(router fiber.Router, unlock *services.UnlockService) {
	handle := func(itemType models.ItemType) fiber.Handler {
		return func(c *fiber.Ctx) error {
			itemID, err := c.ParamsInt("id")
			if err != nil || itemID <= 0 {
				return badRequest(c, "invalid item id", err)
			}

			res, err := unlock.Unlock(c.UserContext(), middleware.UserID(c), itemType, int64(itemID))
			if err != nil {
				return respondError(c, err, "unlock failed")
			}
			return c.Status(unlockStatus(res)).JSON(unlockBody(res))
		}
	}

	router.Post("/unlock/champion/:id", handle(models.ItemTypeChampion))
	router.Post("/unlock/skin/:id", handle(models.ItemTypeSkin))
}

func unlockStatus(res *services.UnlockResult) int {
	if res.Reason == services.ReasonInsufficientPoints {
		return fiber.StatusConflict
	}
	return fiber.StatusOK
}

func unlockBody(res *services.UnlockResult) fiber.Map {
	if res.Success {
		return fiber.Map{
			"success": true,
			"message": res.Message,
			"reason":  string(res.Status),
			"data": fiber.Map{
				"item_type":   res.ItemType,
				"item_id":     res.ItemID,
				"item_name":   res.ItemName,
				"cost":        res.CostCharged,
				"user_points": res.ResultingBalance,
			},
		}
	}
	data := fiber.Map{"user_points": res.ResultingBalance}
	if res.Reason == services.ReasonInsufficientPoints {
		data["points_needed"] = res.PointsNeeded
	}
	return fiber.Map{
		"success": false,
		"message": res.Message,
		"reason":  string(res.Reason),
		"data":    data,
	}
}
