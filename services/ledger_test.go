package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rework-vault/models"

	"github.com/stretchr/testify/require"
)

func TestEnsureProgressRecordSeedsDefaults(t *testing.T) {
	f := newFixture(t)
	f.seedCatalog(t,
		champion(1, 0, true),
		champion(2, 30, false),
		skin(10, 1, 0, true),
		skin(11, 1, 15, false),
	)

	rec := f.newUser(t, "user-1", 0)
	require.Equal(t, int64(0), rec.Points)
	require.Equal(t, []int64{1}, rec.UnlockedIDs(models.ItemTypeChampion))
	require.Equal(t, []int64{10}, rec.UnlockedIDs(models.ItemTypeSkin))
	require.Nil(t, rec.LastDailyBonusAt)

	// A second call is a no-op and does not reseed.
	again, err := f.ledger.EnsureProgressRecord(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, rec.ID, again.ID)

	var grants int64
	require.NoError(t, f.db.Model(&models.UnlockedItem{}).Where("external_user_id = ?", "user-1").Count(&grants).Error)
	require.Equal(t, int64(2), grants)
}

func TestGetProgressUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.GetProgress(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.ledger.ApplyDelta(context.Background(), "ghost", Delta{Points: 5, Reason: models.ReasonAdminGrant})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestApplyDeltaNonNegativity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "u", 10)

	steps := []struct {
		delta   int64
		wantErr error
		balance int64
	}{
		{-4, nil, 6},
		{-7, ErrInsufficientBalance, 6},
		{3, nil, 9},
		{-9, nil, 0},
		{-1, ErrInsufficientBalance, 0},
	}
	for _, st := range steps {
		_, err := f.ledger.ApplyDelta(ctx, "u", Delta{Points: st.delta, Reason: models.ReasonAdminGrant})
		if st.wantErr != nil {
			require.ErrorIs(t, err, st.wantErr)
		} else {
			require.NoError(t, err)
		}
		rec, err := f.ledger.GetProgress(ctx, "u")
		require.NoError(t, err)
		require.Equal(t, st.balance, rec.Points)
		require.GreaterOrEqual(t, rec.Points, int64(0))
	}
}

func TestApplyDeltaRejectedGrantWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCatalog(t, champion(7, 30, false))
	f.newUser(t, "u", 10)

	_, err := f.ledger.ApplyDelta(ctx, "u", Delta{
		Points: -30,
		Grant:  &ItemRef{Type: models.ItemTypeChampion, ID: 7},
		Reason: models.ReasonUnlockChampion,
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	rec, err := f.ledger.GetProgress(ctx, "u")
	require.NoError(t, err)
	require.Equal(t, int64(10), rec.Points)
	require.False(t, rec.HasUnlocked(models.ItemTypeChampion, 7))

	var entries int64
	require.NoError(t, f.db.Model(&models.LedgerEntry{}).Where("reason = ?", models.ReasonUnlockChampion).Count(&entries).Error)
	require.Zero(t, entries)
}

func TestApplyDeltaGrantIsPermanentAndUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "u", 100)

	grant := &ItemRef{Type: models.ItemTypeSkin, ID: 3}
	rec, err := f.ledger.ApplyDelta(ctx, "u", Delta{Points: -15, Grant: grant, Reason: models.ReasonUnlockSkin})
	require.NoError(t, err)
	require.True(t, rec.HasUnlocked(models.ItemTypeSkin, 3))
	require.Equal(t, int64(85), rec.Points)

	_, err = f.ledger.ApplyDelta(ctx, "u", Delta{Points: -15, Grant: grant, Reason: models.ReasonUnlockSkin})
	require.ErrorIs(t, err, ErrAlreadyGranted)

	// Further spending and earning never removes the grant.
	_, err = f.ledger.ApplyDelta(ctx, "u", Delta{Points: -85, Reason: models.ReasonAdminGrant})
	require.NoError(t, err)
	_, err = f.ledger.ApplyDelta(ctx, "u", Delta{Points: -1, Reason: models.ReasonAdminGrant})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	rec, err = f.ledger.GetProgress(ctx, "u")
	require.NoError(t, err)
	require.True(t, rec.HasUnlocked(models.ItemTypeSkin, 3))
	require.Equal(t, int64(0), rec.Points)
}

func TestApplyDeltaStaleSpendOnOwnedItemIsInsufficient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCatalog(t, champion(9, 20, false))
	f.newUser(t, "u", 20)

	grant := &ItemRef{Type: models.ItemTypeChampion, ID: 9}
	_, err := f.ledger.ApplyDelta(ctx, "u", Delta{Points: -20, Grant: grant, Reason: models.ReasonUnlockChampion})
	require.NoError(t, err)

	_, err = f.ledger.ApplyDelta(ctx, "u", Delta{Points: -20, Grant: grant, Reason: models.ReasonUnlockChampion})
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestApplyDeltaRejectsEmptyDelta(t *testing.T) {
	f := newFixture(t)
	f.newUser(t, "u", 0)
	_, err := f.ledger.ApplyDelta(context.Background(), "u", Delta{Reason: models.ReasonAdminGrant})
	require.ErrorIs(t, err, ErrInvalidDelta)

	_, err = f.ledger.ApplyDelta(context.Background(), "u", Delta{Grant: &ItemRef{Type: "emote", ID: 1}})
	require.ErrorIs(t, err, ErrInvalidItemType)
}

func TestApplyDeltaConcurrentDebitsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "u", 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.ApplyDelta(ctx, "u", Delta{Points: -10, Reason: models.ReasonAdminGrant})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrInsufficientBalance) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 5, succeeded)
	rec, err := f.ledger.GetProgress(ctx, "u")
	require.NoError(t, err)
	require.Equal(t, int64(0), rec.Points)
}

func TestHistoryPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "u", 0)
	for i := 0; i < 5; i++ {
		f.clock.Advance(time.Second)
		_, err := f.ledger.ApplyDelta(ctx, "u", Delta{Points: int64(i + 1), Reason: models.ReasonCommentPosted})
		require.NoError(t, err)
	}

	page, err := f.ledger.History(ctx, "u", 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), page.TotalItems)
	require.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Entries, 2)
	require.Equal(t, int64(5), page.Entries[0].Change)
	require.Equal(t, int64(15), page.Entries[0].BalanceAfter)

	last, err := f.ledger.History(ctx, "u", 3, 2)
	require.NoError(t, err)
	require.Len(t, last.Entries, 1)
	require.Equal(t, int64(1), last.Entries[0].Change)
}

func TestPruneExpiredViewsKeepsToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCatalog(t, champion(5, 30, false))
	f.newUser(t, "u", 0)

	old := models.ChampionView{ID: "a1b2c3d4-0000-0000-0000-000000000001", ExternalUserID: "u", ChampionID: 5, ViewedOn: "2026-03-01", ViewedAt: testNow.AddDate(0, 0, -13)}
	require.NoError(t, f.db.Create(&old).Error)

	_, err := f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnChampionView, SubjectID: int64Ptr(5)})
	require.NoError(t, err)

	n, err := f.ledger.PruneExpiredViews(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	rec, err := f.ledger.GetProgress(ctx, "u")
	require.NoError(t, err)
	require.Equal(t, "2026-03-14", rec.ViewedChampionLog[5])
}

func int64Ptr(v int64) *int64 { return &v }

func TestEntriesSinceKeepsSameTimestampEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "u", 0)

	// The fake clock is frozen, so every entry shares one created_at.
	for i := 0; i < 3; i++ {
		_, err := f.ledger.ApplyDelta(ctx, "u", Delta{Points: 1, Reason: models.ReasonAdminGrant})
		require.NoError(t, err)
	}

	all, err := f.ledger.EntriesSince(ctx, "u", LedgerCursor{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		require.True(t, all[i].CreatedAt.Equal(all[0].CreatedAt))
		require.Less(t, all[i-1].ID, all[i].ID)
	}

	var cursor LedgerCursor
	cursor.Advance(all[0])
	rest, err := f.ledger.EntriesSince(ctx, "u", cursor)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	require.Equal(t, all[1].ID, rest[0].ID)
	require.Equal(t, all[2].ID, rest[1].ID)

	cursor.Advance(all[2])
	rest, err = f.ledger.EntriesSince(ctx, "u", cursor)
	require.NoError(t, err)
	require.Empty(t, rest)

	// A later entry is picked up from the same cursor.
	f.clock.Advance(time.Second)
	_, err = f.ledger.ApplyDelta(ctx, "u", Delta{Points: 1, Reason: models.ReasonAdminGrant})
	require.NoError(t, err)
	rest, err = f.ledger.EntriesSince(ctx, "u", cursor)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, int64(4), rest[0].BalanceAfter)
}

func TestEnsureProgressCreatesOnlyWhenMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCatalog(t, champion(1, 0, true))

	require.NoError(t, f.ledger.EnsureProgress(ctx, "u"))
	rec, err := f.ledger.GetProgress(ctx, "u")
	require.NoError(t, err)
	require.True(t, rec.HasUnlocked(models.ItemTypeChampion, 1))

	// An existing record is left untouched, even when the catalog gained defaults.
	f.seedCatalog(t, champion(2, 0, true))
	require.NoError(t, f.ledger.EnsureProgress(ctx, "u"))
	again, err := f.ledger.GetProgress(ctx, "u")
	require.NoError(t, err)
	require.Equal(t, rec.ID, again.ID)
	require.False(t, again.HasUnlocked(models.ItemTypeChampion, 2))

	require.ErrorIs(t, f.ledger.EnsureProgress(ctx, ""), ErrUserNotFound)
}
