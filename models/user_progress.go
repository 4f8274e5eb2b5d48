package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProgress is the per-user ledger head: balance plus daily-bonus idempotency state.
// Unlocked ids and champion views hang off it in their own tables.
type UserProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to identity provider

	Points int64 `json:"points" gorm:"not null;default:0;check:points >= 0"`

	LastDailyBonusAt *time.Time `json:"last_daily_bonus_at,omitempty"`

	Timestamps
}

// UnlockedItem is a permanent grant. No soft delete: rows are never removed.
type UnlockedItem struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"not null;uniqueIndex:idx_unlocked_user_item,priority:1" json:"external_user_id"`
	ItemType       ItemType  `gorm:"type:varchar(16);not null;uniqueIndex:idx_unlocked_user_item,priority:2" json:"item_type"`
	ItemID         int64     `gorm:"not null;uniqueIndex:idx_unlocked_user_item,priority:3" json:"item_id"`
	CostCharged    int64     `gorm:"not null;default:0" json:"cost_charged"`
	Source         string    `gorm:"type:varchar(32);not null" json:"source"` // purchase | default_seed
	UnlockedAt     time.Time `gorm:"autoCreateTime" json:"unlocked_at"`
}

// ChampionView marks the champion_view earn window as consumed for one ledger-day.
type ChampionView struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"not null;uniqueIndex:idx_champion_view_day,priority:1" json:"external_user_id"`
	ChampionID     int64     `gorm:"not null;uniqueIndex:idx_champion_view_day,priority:2" json:"champion_id"`
	ViewedOn       string    `gorm:"type:char(10);not null;index;uniqueIndex:idx_champion_view_day,priority:3" json:"viewed_on"` // YYYY-MM-DD, ledger timezone
	ViewedAt       time.Time `gorm:"not null" json:"viewed_at"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
