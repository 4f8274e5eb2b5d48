// handlers/admin_routes.go
package handlers

import (
	"log"
	"strings"

	"rework-vault/middleware"
	"rework-vault/models"
	"rework-vault/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes registers operator endpoints. router must already enforce the admin role.
func SetupAdminRoutes(router fiber.Router, ledger *services.LedgerStore) {
	router.Post("/points/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			Points int64  `json:"points"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		req.UserID = strings.TrimSpace(req.UserID)
		if req.UserID == "" {
			return badRequest(c, "user_id is required", nil)
		}
		if req.Points < 1 {
			return badRequest(c, "points must be at least 1", nil)
		}
		if len(req.Reason) > 255 {
			return badRequest(c, "reason must be at most 255 characters", nil)
		}

		ctx := c.UserContext()
		if _, err := ledger.EnsureProgressRecord(ctx, req.UserID); err != nil {
			return respondError(c, err, "failed to create progress record")
		}
		rec, err := ledger.ApplyDelta(ctx, req.UserID, services.Delta{
			Points: req.Points,
			Reason: models.ReasonAdminGrant,
			Metadata: map[string]any{
				"granted_by": middleware.UserID(c),
				"note":       req.Reason,
			},
		})
		if err != nil {
			return respondError(c, err, "points grant failed")
		}

		log.Printf("[LEDGER] 🎁 %s granted %d point(s) to %s", middleware.UserID(c), req.Points, req.UserID)
		return c.JSON(fiber.Map{
			"success":     true,
			"message":     "Points granted successfully",
			"user_id":     req.UserID,
			"points":      req.Points,
			"user_points": rec.Points,
		})
	})
}
