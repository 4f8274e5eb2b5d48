package services

import (
	"context"
	"math"

	"rework-vault/models"
)

// UnlockPrices are the per-type list prices shown to clients.
type UnlockPrices struct {
	Champion int64
	Skin     int64
}

// ProgressSummary is the read-only aggregate behind GET /progress.
type ProgressSummary struct {
	Points                 int64   `json:"points"`
	UnlockedChampionsCount int     `json:"unlocked_champions_count"`
	UnlockedSkinsCount     int     `json:"unlocked_skins_count"`
	TotalChampions         int     `json:"total_champions"`
	TotalSkins             int     `json:"total_skins"`
	ChampionUnlockCost     int64   `json:"champion_cost"`
	SkinUnlockCost         int64   `json:"skin_cost"`
	CanClaimDailyBonus     bool    `json:"can_claim_daily_bonus"`
	CompletionPercent      float64 `json:"completion_percent"`
	UnlockedChampionIDs    []int64 `json:"unlocked_champion_ids"`
	UnlockedSkinIDs        []int64 `json:"unlocked_skin_ids"`
}

// UnlockableItem is a locked item with an affordability flag.
type UnlockableItem struct {
	AnnotatedItem
	CanAfford bool `json:"can_afford"`
}

// AvailableUnlocks lists what the user could still buy.
type AvailableUnlocks struct {
	UserPoints int64            `json:"user_points"`
	Champions  []UnlockableItem `json:"champions"`
	Skins      []UnlockableItem `json:"skins"`
}

// LockedItems lists everything still locked for the user.
type LockedItems struct {
	UserPoints      int64           `json:"user_points"`
	LockedChampions []AnnotatedItem `json:"locked_champions"`
	LockedSkins     []AnnotatedItem `json:"locked_skins"`
}

// ProgressionService aggregates ledger and catalog state for display. It never writes.
type ProgressionService struct {
	Ledger  *LedgerStore
	Catalog *CatalogService
	Earn    *EarnRulesEngine
	Prices  UnlockPrices
}

func NewProgressionService(ledger *LedgerStore, catalog *CatalogService, earn *EarnRulesEngine, prices UnlockPrices) *ProgressionService {
	return &ProgressionService{Ledger: ledger, Catalog: catalog, Earn: earn, Prices: prices}
}

// GetSummary returns balance, derived unlock counts and the daily-bonus window state.
func (s *ProgressionService) GetSummary(ctx context.Context, userID string) (*ProgressSummary, error) {
	rec, err := s.Ledger.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	champions, err := s.Catalog.ListItems(ctx, models.ItemTypeChampion)
	if err != nil {
		return nil, err
	}
	skins, err := s.Catalog.ListItems(ctx, models.ItemTypeSkin)
	if err != nil {
		return nil, err
	}

	sum := &ProgressSummary{
		Points:                 rec.Points,
		UnlockedChampionsCount: countUnlocked(champions, rec),
		UnlockedSkinsCount:     countUnlocked(skins, rec),
		TotalChampions:         len(champions),
		TotalSkins:             len(skins),
		ChampionUnlockCost:     s.Prices.Champion,
		SkinUnlockCost:         s.Prices.Skin,
		CanClaimDailyBonus:     s.Earn.CanClaimDailyBonus(rec, s.Earn.Clock.Current()),
		UnlockedChampionIDs:    rec.UnlockedIDs(models.ItemTypeChampion),
		UnlockedSkinIDs:        rec.UnlockedIDs(models.ItemTypeSkin),
	}
	if total := sum.TotalChampions + sum.TotalSkins; total > 0 {
		pct := float64(sum.UnlockedChampionsCount+sum.UnlockedSkinsCount) / float64(total) * 100
		sum.CompletionPercent = math.Round(pct*100) / 100
	}
	return sum, nil
}

// GetAvailableUnlocks returns locked items with can_afford judged on the current
// balance. The flag may be stale by the time an unlock executes.
func (s *ProgressionService) GetAvailableUnlocks(ctx context.Context, userID string) (*AvailableUnlocks, error) {
	rec, champions, skins, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AvailableUnlocks{
		UserPoints: rec.Points,
		Champions:  unlockable(champions, rec),
		Skins:      unlockable(skins, rec),
	}, nil
}

// GetLockedItems returns every item still locked for the user.
func (s *ProgressionService) GetLockedItems(ctx context.Context, userID string) (*LockedItems, error) {
	rec, champions, skins, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LockedItems{
		UserPoints:      rec.Points,
		LockedChampions: lockedOnly(Annotate(champions, rec)),
		LockedSkins:     lockedOnly(Annotate(skins, rec)),
	}, nil
}

// GetCatalog annotates one catalog type for userID, or for a guest when userID is empty.
func (s *ProgressionService) GetCatalog(ctx context.Context, userID string, itemType models.ItemType) ([]AnnotatedItem, error) {
	items, err := s.Catalog.ListItems(ctx, itemType)
	if err != nil {
		return nil, err
	}
	var rec *ProgressRecord
	if userID != "" {
		if rec, err = s.Ledger.GetProgress(ctx, userID); err != nil {
			return nil, err
		}
	}
	return Annotate(items, rec), nil
}

// GetHistory returns the user's ledger entries, newest first.
func (s *ProgressionService) GetHistory(ctx context.Context, userID string, page, size int) (*HistoryPage, error) {
	if _, err := s.Ledger.GetProgress(ctx, userID); err != nil {
		return nil, err
	}
	return s.Ledger.History(ctx, userID, page, size)
}

func (s *ProgressionService) snapshot(ctx context.Context, userID string) (*ProgressRecord, []models.CatalogItem, []models.CatalogItem, error) {
	rec, err := s.Ledger.GetProgress(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	champions, err := s.Catalog.ListItems(ctx, models.ItemTypeChampion)
	if err != nil {
		return nil, nil, nil, err
	}
	skins, err := s.Catalog.ListItems(ctx, models.ItemTypeSkin)
	if err != nil {
		return nil, nil, nil, err
	}
	return rec, champions, skins, nil
}

func countUnlocked(items []models.CatalogItem, rec *ProgressRecord) int {
	n := 0
	for _, item := range items {
		if !IsLockedFor(item, rec) {
			n++
		}
	}
	return n
}

func unlockable(items []models.CatalogItem, rec *ProgressRecord) []UnlockableItem {
	out := []UnlockableItem{}
	for _, a := range Annotate(items, rec) {
		if !a.IsLocked {
			continue
		}
		out = append(out, UnlockableItem{AnnotatedItem: a, CanAfford: rec.Points >= a.UnlockCost})
	}
	return out
}

func lockedOnly(items []AnnotatedItem) []AnnotatedItem {
	out := []AnnotatedItem{}
	for _, a := range items {
		if a.IsLocked {
			out = append(out, a)
		}
	}
	return out
}
