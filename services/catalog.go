package services

import (
	"context"
	"errors"
	"fmt"

	"rework-vault/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnnotatedItem is a catalog item with its per-user lock status.
type AnnotatedItem struct {
	models.CatalogItem
	IsLocked bool `json:"is_locked"`
}

// IsLockedFor derives lock status. A nil record is a guest: only default items are open.
// Skins are judged on their own flag, never on their champion's.
func IsLockedFor(item models.CatalogItem, rec *ProgressRecord) bool {
	return !item.IsUnlockedByDefault && !rec.HasUnlocked(item.ItemType, item.ItemID)
}

// Annotate adds is_locked to every item. Pure: nothing is read or written.
func Annotate(items []models.CatalogItem, rec *ProgressRecord) []AnnotatedItem {
	if rec == nil {
		rec = GuestProgress()
	}
	out := make([]AnnotatedItem, 0, len(items))
	for _, item := range items {
		out = append(out, AnnotatedItem{CatalogItem: item, IsLocked: IsLockedFor(item, rec)})
	}
	return out
}

// CatalogService reads the local catalog mirror.
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// ListItems returns every item of itemType ordered by id.
func (s *CatalogService) ListItems(ctx context.Context, itemType models.ItemType) ([]models.CatalogItem, error) {
	if !itemType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidItemType, itemType)
	}
	items := []models.CatalogItem{}
	err := s.DB.WithContext(ctx).
		Where("item_type = ?", itemType).
		Order("item_id ASC").
		Find(&items).Error
	return items, err
}

// GetItem loads one item or fails with ErrItemNotFound.
func (s *CatalogService) GetItem(ctx context.Context, itemType models.ItemType, itemID int64) (*models.CatalogItem, error) {
	if !itemType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidItemType, itemType)
	}
	var item models.CatalogItem
	err := s.DB.WithContext(ctx).
		Where("item_type = ? AND item_id = ?", itemType, itemID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s %d", ErrItemNotFound, itemType, itemID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// WithTx returns a CatalogService reading through tx.
func (s *CatalogService) WithTx(tx *gorm.DB) *CatalogService {
	return &CatalogService{DB: tx}
}

// DefaultUnlocked returns every item, of either type, that is unlocked by default.
func (s *CatalogService) DefaultUnlocked(ctx context.Context) ([]models.CatalogItem, error) {
	items := []models.CatalogItem{}
	err := s.DB.WithContext(ctx).
		Where("is_unlocked_by_default = ?", true).
		Order("item_type ASC").Order("item_id ASC").
		Find(&items).Error
	return items, err
}

// UpsertItems writes items into the mirror keyed on (item_type, item_id).
func (s *CatalogService) UpsertItems(ctx context.Context, items []models.CatalogItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if !item.ItemType.Valid() {
			return fmt.Errorf("%w: %q for item %d", ErrInvalidItemType, item.ItemType, item.ItemID)
		}
		if item.UnlockCost < 0 {
			return fmt.Errorf("item %s %d has negative unlock cost", item.ItemType, item.ItemID)
		}
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_type"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "slug", "champion_id", "image_url",
			"unlock_cost", "is_unlocked_by_default", "updated_at",
		}),
	}).Create(&items).Error
}
