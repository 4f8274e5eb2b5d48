package models

import (
	"time"

	"gorm.io/datatypes"
)

// LedgerReason names why a balance changed.
type LedgerReason string

const (
	ReasonDailyBonus     LedgerReason = "daily_bonus"
	ReasonChampionView   LedgerReason = "champion_view"
	ReasonCommentPosted  LedgerReason = "comment_posted"
	ReasonUnlockChampion LedgerReason = "unlock_champion"
	ReasonUnlockSkin     LedgerReason = "unlock_skin"
	ReasonAdminGrant     LedgerReason = "admin_grant"
)

// LedgerEntry is the append-only audit row written with every committed ApplyDelta.
type LedgerEntry struct {
	ID             string         `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string         `gorm:"not null;index:idx_ledger_user_time,priority:1" json:"external_user_id"`
	Change         int64          `gorm:"not null" json:"change"`
	BalanceAfter   int64          `gorm:"not null" json:"balance_after"`
	Reason         LedgerReason   `gorm:"type:varchar(32);not null;index" json:"reason"`
	ItemType       *ItemType      `gorm:"type:varchar(16)" json:"item_type,omitempty"`
	ItemID         *int64         `json:"item_id,omitempty"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index:idx_ledger_user_time,priority:2" json:"created_at"`
}
