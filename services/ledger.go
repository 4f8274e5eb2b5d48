package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"rework-vault/models"
	"rework-vault/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = telemetry.Tracer("rework-vault/services")

// ItemRef names one catalog item.
type ItemRef struct {
	Type models.ItemType
	ID   int64
}

// MarkKind names an earn window tracked on the ledger.
type MarkKind string

const (
	MarkDailyBonus   MarkKind = "daily_bonus"
	MarkChampionView MarkKind = "champion_view"
)

// IdempotencyMark consumes an earn window in the same transaction as its credit.
type IdempotencyMark struct {
	Kind       MarkKind
	ChampionID int64 // MarkChampionView only
	At         time.Time
}

// Delta is the single mutation applied by ApplyDelta.
type Delta struct {
	Points   int64
	Grant    *ItemRef
	Mark     *IdempotencyMark
	Reason   models.LedgerReason
	Metadata map[string]any
}

// ProgressRecord is the read model of a user's ledger state.
type ProgressRecord struct {
	ID                  string
	UserID              string
	Points              int64
	UnlockedChampionIDs map[int64]struct{}
	UnlockedSkinIDs     map[int64]struct{}
	LastDailyBonusAt    *time.Time
	ViewedChampionLog   map[int64]string // champion id -> last ledger-day viewed
	CreatedAt           time.Time
}

// GuestProgress is the record used for callers without a session.
func GuestProgress() *ProgressRecord {
	return &ProgressRecord{
		UnlockedChampionIDs: map[int64]struct{}{},
		UnlockedSkinIDs:     map[int64]struct{}{},
		ViewedChampionLog:   map[int64]string{},
	}
}

// HasUnlocked reports whether id is in the unlocked set for itemType.
func (p *ProgressRecord) HasUnlocked(itemType models.ItemType, id int64) bool {
	if p == nil {
		return false
	}
	var set map[int64]struct{}
	switch itemType {
	case models.ItemTypeChampion:
		set = p.UnlockedChampionIDs
	case models.ItemTypeSkin:
		set = p.UnlockedSkinIDs
	}
	_, ok := set[id]
	return ok
}

// UnlockedIDs returns the unlocked ids of itemType in ascending order.
func (p *ProgressRecord) UnlockedIDs(itemType models.ItemType) []int64 {
	set := p.UnlockedChampionIDs
	if itemType == models.ItemTypeSkin {
		set = p.UnlockedSkinIDs
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LedgerStore owns user progress records. ApplyDelta is its only mutation primitive.
type LedgerStore struct {
	DB      *gorm.DB
	Clock   LedgerClock
	catalog *CatalogService
	locks   *userLocks
}

func NewLedgerStore(db *gorm.DB, clock LedgerClock) *LedgerStore {
	return &LedgerStore{DB: db, Clock: clock, catalog: NewCatalogService(db), locks: newUserLocks()}
}

// GetProgress loads the full record of userID.
func (s *LedgerStore) GetProgress(ctx context.Context, userID string) (*ProgressRecord, error) {
	return loadProgress(s.DB.WithContext(ctx), userID)
}

// EnsureProgress creates the record of userID only when it does not exist yet.
// The common case is a single indexed lookup.
func (s *LedgerStore) EnsureProgress(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrUserNotFound)
	}
	var ids []string
	if err := s.DB.WithContext(ctx).Model(&models.UserProgress{}).
		Where("external_user_id = ?", userID).
		Limit(1).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) > 0 {
		return nil
	}
	_, err := s.EnsureProgressRecord(ctx, userID)
	return err
}

// EnsureProgressRecord creates the record on first sight (idempotent) and seeds
// every catalog item that is unlocked by default at that moment.
func (s *LedgerStore) EnsureProgressRecord(ctx context.Context, userID string) (*ProgressRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrUserNotFound)
	}
	unlock := s.locks.lock(userID)
	defer unlock()

	var rec *ProgressRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prog := models.UserProgress{
			ID:             uuid.NewString(),
			ExternalUserID: userID,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}},
			DoNothing: true,
		}).Create(&prog)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			defaults, err := s.catalog.WithTx(tx).DefaultUnlocked(ctx)
			if err != nil {
				return err
			}
			if len(defaults) > 0 {
				grants := make([]models.UnlockedItem, 0, len(defaults))
				for _, item := range defaults {
					grants = append(grants, models.UnlockedItem{
						ID:             uuid.NewString(),
						ExternalUserID: userID,
						ItemType:       item.ItemType,
						ItemID:         item.ItemID,
						Source:         "default_seed",
					})
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grants).Error; err != nil {
					return err
				}
			}
			log.Printf("[LEDGER] 🆕 Progress record created for %s (seeded %d default item(s))", userID, len(defaults))
		}

		var err error
		rec, err = loadProgress(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ApplyDelta atomically adds d.Points to the balance, records the optional grant and
// idempotency mark, and appends a ledger entry. Calls for one user are serialized.
// On ErrInsufficientBalance, ErrAlreadyGranted or ErrWindowConsumed nothing is written.
func (s *LedgerStore) ApplyDelta(ctx context.Context, userID string, d Delta) (*ProgressRecord, error) {
	ctx, span := tracer.Start(ctx, "LedgerStore.ApplyDelta")
	defer span.End()
	span.SetAttributes(
		attribute.String("ledger.user_id", userID),
		attribute.Int64("ledger.points", d.Points),
		attribute.String("ledger.reason", string(d.Reason)),
	)

	if d.Points == 0 && d.Grant == nil {
		return nil, ErrInvalidDelta
	}
	if d.Grant != nil && !d.Grant.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidItemType, d.Grant.Type)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	var rec *ProgressRecord
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prog models.UserProgress
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_user_id = ?", userID).
			First(&prog).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
			}
			return err
		}

		if d.Mark != nil {
			if err := s.consumeMark(tx, &prog, d.Mark); err != nil {
				return err
			}
		}

		// Balance first: a spend that lost a race to the same grant reports
		// insufficient points, not a duplicate.
		balance := prog.Points + d.Points
		if balance < 0 {
			return ErrInsufficientBalance
		}

		if d.Grant != nil {
			var owned int64
			if err := tx.Model(&models.UnlockedItem{}).
				Where("external_user_id = ? AND item_type = ? AND item_id = ?", userID, d.Grant.Type, d.Grant.ID).
				Count(&owned).Error; err != nil {
				return err
			}
			if owned > 0 {
				return ErrAlreadyGranted
			}
		}

		if d.Points != 0 {
			if err := tx.Model(&prog).Update("points", balance).Error; err != nil {
				return err
			}
		}

		entry := models.LedgerEntry{
			ID:             uuid.NewString(),
			ExternalUserID: userID,
			Change:         d.Points,
			BalanceAfter:   balance,
			Reason:         d.Reason,
			CreatedAt:      s.Clock.Current(),
		}

		if d.Grant != nil {
			charged := int64(0)
			if d.Points < 0 {
				charged = -d.Points
			}
			grant := models.UnlockedItem{
				ID:             uuid.NewString(),
				ExternalUserID: userID,
				ItemType:       d.Grant.Type,
				ItemID:         d.Grant.ID,
				CostCharged:    charged,
				Source:         "purchase",
			}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
			itemType, itemID := d.Grant.Type, d.Grant.ID
			entry.ItemType = &itemType
			entry.ItemID = &itemID
		}

		if len(d.Metadata) > 0 {
			raw, err := json.Marshal(d.Metadata)
			if err != nil {
				return fmt.Errorf("encode ledger metadata: %w", err)
			}
			entry.Metadata = datatypes.JSON(raw)
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		var err error
		rec, err = loadProgress(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[LEDGER] %s %+d (%s) → balance=%d", userID, d.Points, d.Reason, rec.Points)
	return rec, nil
}

// consumeMark fails with ErrWindowConsumed if the mark's window was already used today.
func (s *LedgerStore) consumeMark(tx *gorm.DB, prog *models.UserProgress, m *IdempotencyMark) error {
	day := s.Clock.Day(m.At)
	switch m.Kind {
	case MarkDailyBonus:
		if prog.LastDailyBonusAt != nil && s.Clock.Day(*prog.LastDailyBonusAt) == day {
			return ErrWindowConsumed
		}
		at := m.At
		if err := tx.Model(prog).Update("last_daily_bonus_at", at).Error; err != nil {
			return err
		}
		return nil
	case MarkChampionView:
		var seen int64
		if err := tx.Model(&models.ChampionView{}).
			Where("external_user_id = ? AND champion_id = ? AND viewed_on = ?", prog.ExternalUserID, m.ChampionID, day).
			Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return ErrWindowConsumed
		}
		view := models.ChampionView{
			ID:             uuid.NewString(),
			ExternalUserID: prog.ExternalUserID,
			ChampionID:     m.ChampionID,
			ViewedOn:       day,
			ViewedAt:       m.At,
		}
		return tx.Create(&view).Error
	default:
		return fmt.Errorf("unknown idempotency mark %q", m.Kind)
	}
}

// HistoryPage is one page of ledger entries, newest first.
type HistoryPage struct {
	Entries    []models.LedgerEntry `json:"entries"`
	Page       int                  `json:"page"`
	Size       int                  `json:"size"`
	TotalItems int64                `json:"total_items"`
	TotalPages int                  `json:"total_pages"`
}

// History returns paginated ledger entries for userID.
func (s *LedgerStore) History(ctx context.Context, userID string, page, size int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	db := s.DB.WithContext(ctx)

	var total int64
	if err := db.Model(&models.LedgerEntry{}).Where("external_user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}

	entries := []models.LedgerEntry{}
	if err := db.Where("external_user_id = ?", userID).
		Order("created_at DESC").Order("id").
		Limit(size).Offset((page - 1) * size).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return &HistoryPage{
		Entries:    entries,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// LedgerCursor marks a position in a user's ledger. Entries are ordered by
// (CreatedAt, ID) so entries sharing a timestamp are never skipped.
type LedgerCursor struct {
	At time.Time
	ID string
}

// Advance moves the cursor to e.
func (c *LedgerCursor) Advance(e models.LedgerEntry) {
	c.At = e.CreatedAt
	c.ID = e.ID
}

// EntriesSince returns ledger entries of userID positioned strictly after cursor, oldest first.
func (s *LedgerStore) EntriesSince(ctx context.Context, userID string, cursor LedgerCursor) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.DB.WithContext(ctx).
		Where("external_user_id = ?", userID).
		Where("created_at > ? OR (created_at = ? AND id > ?)", cursor.At, cursor.At, cursor.ID).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// PruneChampionViews deletes view marks from ledger-days strictly before beforeDay.
// Such marks cannot affect any current earn window.
func (s *LedgerStore) PruneChampionViews(ctx context.Context, beforeDay string) (int64, error) {
	res := s.DB.WithContext(ctx).Where("viewed_on < ?", beforeDay).Delete(&models.ChampionView{})
	return res.RowsAffected, res.Error
}

func loadProgress(db *gorm.DB, userID string) (*ProgressRecord, error) {
	var prog models.UserProgress
	if err := db.Where("external_user_id = ?", userID).First(&prog).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, err
	}

	var unlocked []models.UnlockedItem
	if err := db.Where("external_user_id = ?", userID).Find(&unlocked).Error; err != nil {
		return nil, err
	}

	var views []models.ChampionView
	if err := db.Where("external_user_id = ?", userID).Find(&views).Error; err != nil {
		return nil, err
	}

	rec := &ProgressRecord{
		ID:                  prog.ID,
		UserID:              prog.ExternalUserID,
		Points:              prog.Points,
		UnlockedChampionIDs: map[int64]struct{}{},
		UnlockedSkinIDs:     map[int64]struct{}{},
		LastDailyBonusAt:    prog.LastDailyBonusAt,
		ViewedChampionLog:   map[int64]string{},
		CreatedAt:           prog.CreatedAt,
	}
	for _, u := range unlocked {
		switch u.ItemType {
		case models.ItemTypeChampion:
			rec.UnlockedChampionIDs[u.ItemID] = struct{}{}
		case models.ItemTypeSkin:
			rec.UnlockedSkinIDs[u.ItemID] = struct{}{}
		}
	}
	for _, v := range views {
		if v.ViewedOn > rec.ViewedChampionLog[v.ChampionID] {
			rec.ViewedChampionLog[v.ChampionID] = v.ViewedOn
		}
	}
	return rec, nil
}
