// config/config.go
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting of the service.
type Config struct {
	Port           int    `env:"PORT" envDefault:"5200"`
	DBDriver       string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`

	// gateway: trust X-User-ID behind a bearer service token. jwt: verify user tokens directly.
	AuthMode         string `env:"AUTH_MODE" envDefault:"gateway"`
	GameServiceToken string `env:"GAME_SERVICE_TOKEN"`
	JWTSecret        string `env:"JWT_SECRET"`

	Ledger LedgerConfig

	CatalogSource       string        `env:"CATALOG_SOURCE" envDefault:"none"`
	SyncServiceURL      string        `env:"SYNC_SERVICE_URL"`
	CatalogEndpoint     string        `env:"CATALOG_SYNC_ENDPOINT" envDefault:"/api/v1/public/catalog"`
	CatalogSyncInterval time.Duration `env:"CATALOG_SYNC_INTERVAL" envDefault:"5m"`
	R2                  R2Config

	ViewLogRetentionDays int `env:"VIEW_LOG_RETENTION_DAYS" envDefault:"7"`

	OTELEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
	OTELEndpoint string `env:"OTEL_ENDPOINT"`
}

// LedgerConfig carries the point economy policy.
type LedgerConfig struct {
	Timezone           string `env:"LEDGER_TIMEZONE" envDefault:"UTC"`
	DailyBonusPoints   int64  `env:"EARN_DAILY_BONUS_POINTS" envDefault:"5"`
	ChampionViewPoints int64  `env:"EARN_CHAMPION_VIEW_POINTS" envDefault:"2"`
	CommentPoints      int64  `env:"EARN_COMMENT_POINTS" envDefault:"1"`
	ChampionUnlockCost int64  `env:"CHAMPION_UNLOCK_COST" envDefault:"30"`
	SkinUnlockCost     int64  `env:"SKIN_UNLOCK_COST" envDefault:"15"`
}

// R2Config points at the bucket object holding the catalog manifest.
type R2Config struct {
	AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	Bucket          string `env:"R2_BUCKET_NAME"`
	CatalogKey      string `env:"R2_CATALOG_KEY" envDefault:"catalog/manifest.json"`
}

// Location resolves the ledger timezone. Every "today" in the service is computed in it.
func (l LedgerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_TIMEZONE %q: %w", l.Timezone, err)
	}
	return loc, nil
}

// Origins returns the trimmed CORS origin list joined the way fiber's cors config expects.
func (c Config) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

// Load reads .env (if any) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return Parse()
}

// Parse parses the process environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	switch c.AuthMode {
	case "gateway":
		if c.GameServiceToken == "" {
			return fmt.Errorf("GAME_SERVICE_TOKEN is required when AUTH_MODE=gateway")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q", c.AuthMode)
	}
	switch c.CatalogSource {
	case "none":
	case "http":
		if c.SyncServiceURL == "" {
			return fmt.Errorf("SYNC_SERVICE_URL is required when CATALOG_SOURCE=http")
		}
	case "r2":
		if c.R2.Bucket == "" || c.R2.AccountID == "" {
			return fmt.Errorf("R2_BUCKET_NAME and CLOUDFLARE_ACCOUNT_ID are required when CATALOG_SOURCE=r2")
		}
	default:
		return fmt.Errorf("unsupported CATALOG_SOURCE %q", c.CatalogSource)
	}
	if c.Ledger.DailyBonusPoints < 0 || c.Ledger.ChampionViewPoints < 0 || c.Ledger.CommentPoints < 0 {
		return fmt.Errorf("earn points must not be negative")
	}
	if c.Ledger.ChampionUnlockCost < 0 || c.Ledger.SkinUnlockCost < 0 {
		return fmt.Errorf("unlock costs must not be negative")
	}
	if _, err := c.Ledger.Location(); err != nil {
		return err
	}
	return nil
}
