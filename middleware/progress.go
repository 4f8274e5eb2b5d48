// middleware/progress.go
package middleware

import (
	"log"

	"rework-vault/services"

	"github.com/gofiber/fiber/v2"
)

// EnsureProgressMiddleware creates the caller's progress record on first sight.
// Must run after RequireUser.
func EnsureProgressMiddleware(ledger *services.LedgerStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := ledger.EnsureProgress(c.UserContext(), UserID(c)); err != nil {
			log.Printf("❌ [USER_CTX] failed to ensure progress record for %s: %v", UserID(c), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "failed to create progress record",
				"cause":   err.Error(),
			})
		}
		return c.Next()
	}
}
