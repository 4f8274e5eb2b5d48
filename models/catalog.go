package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ItemType discriminates the two unlockable kinds; it routes to the matching unlocked set.
type ItemType string

const (
	ItemTypeChampion ItemType = "champion"
	ItemTypeSkin     ItemType = "skin"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t == ItemTypeChampion || t == ItemTypeSkin
}

// CatalogItem mirrors an unlockable champion or skin from the content catalog.
// Owned by the sync worker; the ledger only reads it.
type CatalogItem struct {
	ItemType            ItemType  `gorm:"primaryKey;type:varchar(16)" json:"item_type"`
	ItemID              int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name                string    `gorm:"not null" json:"name"`
	Slug                string    `gorm:"index" json:"slug"`
	ChampionID          *int64    `gorm:"index" json:"champion_id,omitempty"` // skins only
	ImageURL            string    `gorm:"type:text" json:"image_url"`
	UnlockCost          int64     `gorm:"not null;default:0;check:unlock_cost >= 0" json:"unlock_cost"`
	IsUnlockedByDefault bool      `gorm:"not null;default:false" json:"is_unlocked_by_default"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeSave keeps the slug in step with the display name.
func (c *CatalogItem) BeforeSave(tx *gorm.DB) error {
	if c.Name != "" {
		c.Slug = slug.Make(c.Name)
	}
	return nil
}
