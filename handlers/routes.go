// handlers/routes.go
package handlers

import (
	"time"

	"rework-vault/middleware"
	"rework-vault/services"

	"github.com/gofiber/fiber/v2"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Ledger         *services.LedgerStore
	Earn           *services.EarnRulesEngine
	Unlock         *services.UnlockService
	Progression    *services.ProgressionService
	StreamInterval time.Duration
}

// SetupRoutes mounts every route. identity resolves the caller (gateway headers or
// JWT) and runs for everything except /healthz.
func SetupRoutes(app *fiber.App, svc Services, identity ...fiber.Handler) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	for _, h := range identity {
		app.Use(h)
	}

	// Guest-readable
	SetupCatalogRoutes(app, svc.Ledger, svc.Progression)

	adminGroup := app.Group("/s/admin", middleware.RequireUser(), middleware.RequireRole("admin"))
	SetupAdminRoutes(adminGroup, svc.Ledger)

	// 🔐 Everything below requires a user and a progress record.
	securedGroup := app.Group("/", middleware.RequireUser(), middleware.EnsureProgressMiddleware(svc.Ledger))
	SetupProgressionRoutes(securedGroup, svc.Progression)
	SetupEarnRoutes(securedGroup, svc.Earn)
	SetupUnlockRoutes(securedGroup, svc.Unlock)
	SetupStreamRoutes(securedGroup, svc.Ledger, svc.StreamInterval)
}
