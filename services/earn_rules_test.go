package services

import (
	"context"
	"testing"
	"time"

	"rework-vault/models"

	"github.com/stretchr/testify/require"
)

func TestDailyBonusOncePerLedgerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "u", 0)

	res, err := f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnDailyBonus})
	require.NoError(t, err)
	require.True(t, res.Credited)
	require.Equal(t, int64(5), res.PointsEarned)
	require.Equal(t, int64(5), res.Balance)

	f.clock.Advance(3 * time.Hour)
	res, err = f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnDailyBonus})
	require.NoError(t, err)
	require.False(t, res.Credited)
	require.Zero(t, res.PointsEarned)
	require.Equal(t, int64(5), res.Balance)

	rec, err := f.ledger.GetProgress(ctx, "u")
	require.NoError(t, err)
	require.False(t, f.earn.CanClaimDailyBonus(rec, f.clock.Now()))

	// 10:30 + 3h + 11h crosses midnight UTC.
	f.clock.Advance(11 * time.Hour)
	require.True(t, f.earn.CanClaimDailyBonus(rec, f.clock.Now()))
	res, err = f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnDailyBonus})
	require.NoError(t, err)
	require.True(t, res.Credited)
	require.Equal(t, int64(10), res.Balance)

	var entries int64
	require.NoError(t, f.db.Model(&models.LedgerEntry{}).Where("reason = ?", models.ReasonDailyBonus).Count(&entries).Error)
	require.Equal(t, int64(2), entries)
}

func TestDailyBonusUsesLedgerTimezone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "u", 0)

	// UTC+12: 10:30 UTC is 22:30 local, so two hours later is a new ledger-day.
	f.earn.Clock.Loc = time.FixedZone("UTC+12", 12*3600)
	f.ledger.Clock.Loc = f.earn.Clock.Loc

	res, err := f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnDailyBonus})
	require.NoError(t, err)
	require.True(t, res.Credited)

	f.clock.Advance(2 * time.Hour)
	res, err = f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnDailyBonus})
	require.NoError(t, err)
	require.True(t, res.Credited)
	require.Equal(t, int64(10), res.Balance)
}

func TestChampionViewOncePerChampionPerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCatalog(t, champion(3, 30, false), champion(4, 30, false))
	f.newUser(t, "u", 0)

	view := func(id int64) *EarnResult {
		t.Helper()
		res, err := f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnChampionView, SubjectID: int64Ptr(id)})
		require.NoError(t, err)
		return res
	}

	first := view(3)
	require.True(t, first.Credited)
	require.Equal(t, int64(2), first.Balance)

	again := view(3)
	require.False(t, again.Credited)
	require.Equal(t, int64(2), again.Balance)

	other := view(4)
	require.True(t, other.Credited)
	require.Equal(t, int64(4), other.Balance)

	rec, err := f.ledger.GetProgress(ctx, "u")
	require.NoError(t, err)
	require.False(t, f.earn.CanCreditChampionView(rec, 3, f.clock.Now()))

	f.clock.Advance(24 * time.Hour)
	require.True(t, f.earn.CanCreditChampionView(rec, 3, f.clock.Now()))
	next := view(3)
	require.True(t, next.Credited)
	require.Equal(t, int64(6), next.Balance)
}

func TestChampionViewRejectsUnknownChampion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "u", 0)

	_, err := f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnChampionView, SubjectID: int64Ptr(99)})
	require.ErrorIs(t, err, ErrItemNotFound)

	_, err = f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnChampionView})
	require.ErrorIs(t, err, ErrItemNotFound)

	rec, err := f.ledger.GetProgress(ctx, "u")
	require.NoError(t, err)
	require.Zero(t, rec.Points)
	require.Empty(t, rec.ViewedChampionLog)
}

func TestCommentCreditsEveryTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "u", 0)

	for i := 1; i <= 4; i++ {
		res, err := f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnCommentPosted})
		require.NoError(t, err)
		require.True(t, res.Credited)
		require.Equal(t, int64(i), res.Balance)
	}
}

func TestRecordEventErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.earn.RecordEvent(ctx, "nobody", EarnEvent{Kind: EarnCommentPosted})
	require.ErrorIs(t, err, ErrUserNotFound)

	f.newUser(t, "u", 0)
	_, err = f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: "like"})
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestZeroRuleIsDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.newUser(t, "u", 0)
	f.earn.Rules.DailyBonusPoints = 0

	res, err := f.earn.RecordEvent(ctx, "u", EarnEvent{Kind: EarnDailyBonus})
	require.NoError(t, err)
	require.False(t, res.Credited)

	rec, err := f.ledger.GetProgress(ctx, "u")
	require.NoError(t, err)
	require.Nil(t, rec.LastDailyBonusAt)
	require.True(t, f.earn.CanClaimDailyBonus(rec, f.clock.Now()))
}
