// handlers/catalog_routes.go
package handlers

import (
	"rework-vault/middleware"
	"rework-vault/models"
	"rework-vault/services"

	"github.com/gofiber/fiber/v2"
)

// SetupCatalogRoutes registers the catalog listings. Guests are allowed and see
// only default items as unlocked.
func SetupCatalogRoutes(router fiber.Router, ledger *services.LedgerStore, progression *services.ProgressionService) {
	list := func(itemType models.ItemType) fiber.Handler {
		return func(c *fiber.Ctx) error {
			userID := middleware.UserID(c)
			if userID != "" {
				if err := ledger.EnsureProgress(c.UserContext(), userID); err != nil {
					return respondError(c, err, "failed to create progress record")
				}
			}
			items, err := progression.GetCatalog(c.UserContext(), userID, itemType)
			if err != nil {
				return respondError(c, err, "failed to get catalog")
			}
			return c.JSON(fiber.Map{
				"success": true,
				"data":    items,
			})
		}
	}

	router.Get("/catalog/champions", list(models.ItemTypeChampion))
	router.Get("/catalog/skins", list(models.ItemTypeSkin))
}
