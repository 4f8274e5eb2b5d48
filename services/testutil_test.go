package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"rework-vault/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

type fixture struct {
	db          *gorm.DB
	clock       *fakeClock
	ledger      *LedgerStore
	catalog     *CatalogService
	earn        *EarnRulesEngine
	unlock      *UnlockService
	progression *ProgressionService
}

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Per-test in-memory database to avoid cross-test interference.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	fc := &fakeClock{now: testNow}
	clock := LedgerClock{Loc: time.UTC, Now: fc.Now}

	ledger := NewLedgerStore(db, clock)
	catalog := NewCatalogService(db)
	earn := NewEarnRulesEngine(ledger, catalog, DefaultEarnRules)
	return &fixture{
		db:          db,
		clock:       fc,
		ledger:      ledger,
		catalog:     catalog,
		earn:        earn,
		unlock:      NewUnlockService(ledger, catalog),
		progression: NewProgressionService(ledger, catalog, earn, UnlockPrices{Champion: 30, Skin: 15}),
	}
}

func champion(id, cost int64, free bool) models.CatalogItem {
	return models.CatalogItem{
		ItemType:            models.ItemTypeChampion,
		ItemID:              id,
		Name:                fmt.Sprintf("Champion %d", id),
		UnlockCost:          cost,
		IsUnlockedByDefault: free,
	}
}

func skin(id, championID, cost int64, free bool) models.CatalogItem {
	return models.CatalogItem{
		ItemType:            models.ItemTypeSkin,
		ItemID:              id,
		Name:                fmt.Sprintf("Skin %d", id),
		ChampionID:          &championID,
		UnlockCost:          cost,
		IsUnlockedByDefault: free,
	}
}

func (f *fixture) seedCatalog(t *testing.T, items ...models.CatalogItem) {
	t.Helper()
	require.NoError(t, f.catalog.UpsertItems(context.Background(), items))
}

// newUser creates a record and credits it with points through the ledger.
func (f *fixture) newUser(t *testing.T, userID string, points int64) *ProgressRecord {
	t.Helper()
	ctx := context.Background()
	rec, err := f.ledger.EnsureProgressRecord(ctx, userID)
	require.NoError(t, err)
	if points > 0 {
		rec, err = f.ledger.ApplyDelta(ctx, userID, Delta{Points: points, Reason: models.ReasonAdminGrant})
		require.NoError(t, err)
	}
	return rec
}
