// workers/catalog_source.go
package workers

import (
	"context"
	"log"
	"strings"
	"time"

	"rework-vault/models"
	"rework-vault/services"
)

// RemoteCatalogItem is one champion or skin as published by the content catalog.
type RemoteCatalogItem struct {
	ID                  int64     `json:"id"`
	ChampionID          *int64    `json:"champion_id,omitempty"`
	Name                string    `json:"name"`
	ImageURL            *string   `json:"image_url,omitempty"`
	UnlockCost          *int64    `json:"unlock_cost,omitempty"`
	IsUnlockedByDefault bool      `json:"is_unlocked_by_default"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CatalogManifest is the payload every catalog source returns.
type CatalogManifest struct {
	Champions []RemoteCatalogItem `json:"champions"`
	Skins     []RemoteCatalogItem `json:"skins"`
}

// Len returns the total number of items in the manifest.
func (m *CatalogManifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Champions) + len(m.Skins)
}

// CatalogSource fetches catalog changes. A nil manifest means nothing changed.
type CatalogSource interface {
	Name() string
	Fetch(ctx context.Context, since time.Time) (*CatalogManifest, error)
}

// acker is implemented by sources that need to know a fetched batch was stored.
type acker interface{ Ack() }

// toCatalogItems converts a manifest into mirror rows. Items without an explicit
// cost get the list price of their type; malformed items are skipped.
func toCatalogItems(m *CatalogManifest, prices services.UnlockPrices) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, m.Len())
	add := func(itemType models.ItemType, list []RemoteCatalogItem, fallback int64) {
		for _, r := range list {
			name := strings.TrimSpace(r.Name)
			if r.ID <= 0 || name == "" {
				log.Printf("[CATALOG_SYNC] ⚠️ Skipping malformed %s (id=%d, name=%q)", itemType, r.ID, r.Name)
				continue
			}
			cost := fallback
			if r.UnlockCost != nil {
				cost = *r.UnlockCost
			}
			if cost < 0 {
				log.Printf("[CATALOG_SYNC] ⚠️ Skipping %s %d with negative cost %d", itemType, r.ID, cost)
				continue
			}
			item := models.CatalogItem{
				ItemType:            itemType,
				ItemID:              r.ID,
				Name:                name,
				UnlockCost:          cost,
				IsUnlockedByDefault: r.IsUnlockedByDefault,
			}
			if r.ImageURL != nil {
				item.ImageURL = *r.ImageURL
			}
			if itemType == models.ItemTypeSkin {
				item.ChampionID = r.ChampionID
			}
			items = append(items, item)
		}
	}
	add(models.ItemTypeChampion, m.Champions, prices.Champion)
	add(models.ItemTypeSkin, m.Skins, prices.Skin)
	return items
}

func latestUpdate(m *CatalogManifest) time.Time {
	var latest time.Time
	for _, list := range [][]RemoteCatalogItem{m.Champions, m.Skins} {
		for _, r := range list {
			if r.UpdatedAt.After(latest) {
				latest = r.UpdatedAt
			}
		}
	}
	return latest
}
