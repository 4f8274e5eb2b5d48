package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rework-vault/config"
	"rework-vault/handlers"
	"rework-vault/middleware"
	"rework-vault/models"
	"rework-vault/services"
	"rework-vault/telemetry"
	"rework-vault/utils"
	"rework-vault/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "rework-vault", cfg.OTELEndpoint, cfg.OTELEnabled)
	if err != nil {
		log.Fatal("failed to set up tracing: ", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal("failed to connect to database: ", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	loc, err := cfg.Ledger.Location()
	if err != nil {
		log.Fatal(err)
	}
	clock := services.NewLedgerClock(loc)
	prices := services.UnlockPrices{
		Champion: cfg.Ledger.ChampionUnlockCost,
		Skin:     cfg.Ledger.SkinUnlockCost,
	}

	ledger := services.NewLedgerStore(db, clock)
	catalog := services.NewCatalogService(db)
	earn := services.NewEarnRulesEngine(ledger, catalog, services.EarnRules{
		DailyBonusPoints:   cfg.Ledger.DailyBonusPoints,
		ChampionViewPoints: cfg.Ledger.ChampionViewPoints,
		CommentPoints:      cfg.Ledger.CommentPoints,
	})
	unlock := services.NewUnlockService(ledger, catalog)
	progression := services.NewProgressionService(ledger, catalog, earn, prices)

	scheduler, err := services.StartMaintenanceScheduler(ledger, cfg.ViewLogRetentionDays)
	if err != nil {
		log.Fatal("failed to start maintenance scheduler: ", err)
	}

	source, err := newCatalogSource(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize catalog source: ", err)
	}
	if source != nil {
		workers.NewCatalogSyncWorker(catalog, source, cfg.CatalogSyncInterval, prices).Start(ctx)
	} else {
		log.Println("⚠️  CATALOG_SOURCE=none — catalog_items must be populated externally")
	}

	app := fiber.New(fiber.Config{
		AppName: "rework-vault",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     "GET,POST,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	var identity []fiber.Handler
	switch cfg.AuthMode {
	case "jwt":
		identity = []fiber.Handler{
			middleware.QueryTokenMiddleware(),
			middleware.JWTUserMiddleware(cfg.JWTSecret),
		}
	default:
		// 🔐❗ Only Gateway requests allowed
		identity = []fiber.Handler{
			middleware.GatewayAuthMiddleware(cfg.GameServiceToken),
			middleware.UserContextMiddleware(),
		}
	}

	handlers.SetupRoutes(app, handlers.Services{
		Ledger:      ledger,
		Earn:        earn,
		Unlock:      unlock,
		Progression: progression,
	}, identity...)

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%d", cfg.Port)
	log.Printf("✅ Auth mode: %s", cfg.AuthMode)
	log.Printf("✅ Ledger timezone: %s", loc)
	log.Printf("✅ CORS configured for origins: %s", cfg.Origins())

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("[SCHEDULER] shutdown error: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer; a single connection also serializes ledger transactions.
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	}
}

func newCatalogSource(ctx context.Context, cfg config.Config) (workers.CatalogSource, error) {
	switch cfg.CatalogSource {
	case "http":
		return workers.NewHTTPCatalogSource(cfg.SyncServiceURL, cfg.CatalogEndpoint, cfg.GameServiceToken), nil
	case "r2":
		client, err := utils.NewR2Client(ctx, cfg.R2)
		if err != nil {
			return nil, err
		}
		return workers.NewR2CatalogSource(client, cfg.R2.Bucket, cfg.R2.CatalogKey), nil
	default:
		return nil, nil
	}
}
