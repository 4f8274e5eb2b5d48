package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"rework-vault/models"

	"go.opentelemetry.io/otel/attribute"
)

// EarnKind is an engagement event that can credit points.
type EarnKind string

const (
	EarnDailyBonus    EarnKind = "daily_bonus"
	EarnChampionView  EarnKind = "champion_view"
	EarnCommentPosted EarnKind = "comment_posted"
)

// EarnEvent is an engagement event reported by a client.
type EarnEvent struct {
	Kind       EarnKind
	SubjectID  *int64 // champion id for champion_view
	OccurredAt time.Time
}

// EarnResult reports whether an event credited points. Credited=false is a normal outcome.
type EarnResult struct {
	Credited     bool  `json:"credited"`
	PointsEarned int64 `json:"points_earned"`
	Balance      int64 `json:"user_points"`
}

// EarnRules are the policy values for each event kind.
type EarnRules struct {
	DailyBonusPoints   int64
	ChampionViewPoints int64
	CommentPoints      int64
}

// DefaultEarnRules mirrors the published point table.
var DefaultEarnRules = EarnRules{
	DailyBonusPoints:   5,
	ChampionViewPoints: 2,
	CommentPoints:      1,
}

// EarnRulesEngine turns engagement events into ledger credits.
type EarnRulesEngine struct {
	Ledger  *LedgerStore
	Catalog *CatalogService
	Rules   EarnRules
	Clock   LedgerClock
}

func NewEarnRulesEngine(ledger *LedgerStore, catalog *CatalogService, rules EarnRules) *EarnRulesEngine {
	return &EarnRulesEngine{Ledger: ledger, Catalog: catalog, Rules: rules, Clock: ledger.Clock}
}

// RecordEvent credits the event's points unless its idempotency window is already
// consumed. The credit and the window mark commit together or not at all.
func (e *EarnRulesEngine) RecordEvent(ctx context.Context, userID string, ev EarnEvent) (*EarnResult, error) {
	ctx, span := tracer.Start(ctx, "EarnRulesEngine.RecordEvent")
	defer span.End()
	span.SetAttributes(attribute.String("earn.kind", string(ev.Kind)), attribute.String("earn.user_id", userID))

	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = e.Clock.Current()
	}

	delta := Delta{}
	switch ev.Kind {
	case EarnDailyBonus:
		delta.Points = e.Rules.DailyBonusPoints
		delta.Reason = models.ReasonDailyBonus
		delta.Mark = &IdempotencyMark{Kind: MarkDailyBonus, At: ev.OccurredAt}
	case EarnChampionView:
		if ev.SubjectID == nil {
			return nil, fmt.Errorf("%w: champion_view requires a champion id", ErrItemNotFound)
		}
		if _, err := e.Catalog.GetItem(ctx, models.ItemTypeChampion, *ev.SubjectID); err != nil {
			return nil, err
		}
		delta.Points = e.Rules.ChampionViewPoints
		delta.Reason = models.ReasonChampionView
		delta.Mark = &IdempotencyMark{Kind: MarkChampionView, ChampionID: *ev.SubjectID, At: ev.OccurredAt}
		delta.Metadata = map[string]any{"champion_id": *ev.SubjectID}
	case EarnCommentPosted:
		delta.Points = e.Rules.CommentPoints
		delta.Reason = models.ReasonCommentPosted
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}

	// A rule configured to zero is disabled: nothing is written, the window stays open.
	if delta.Points == 0 {
		return e.recordZero(ctx, userID)
	}

	rec, err := e.Ledger.ApplyDelta(ctx, userID, delta)
	if errors.Is(err, ErrWindowConsumed) {
		current, gerr := e.Ledger.GetProgress(ctx, userID)
		if gerr != nil {
			return nil, gerr
		}
		log.Printf("[EARN] %s already claimed %s for %s", userID, ev.Kind, e.Clock.Day(ev.OccurredAt))
		return &EarnResult{Credited: false, PointsEarned: 0, Balance: current.Points}, nil
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[EARN] ⭐ %s earned %d for %s", userID, delta.Points, ev.Kind)
	return &EarnResult{Credited: true, PointsEarned: delta.Points, Balance: rec.Points}, nil
}

func (e *EarnRulesEngine) recordZero(ctx context.Context, userID string) (*EarnResult, error) {
	rec, err := e.Ledger.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &EarnResult{Credited: false, PointsEarned: 0, Balance: rec.Points}, nil
}

// CanClaimDailyBonus reports whether the daily_bonus window is open for rec at now.
func (e *EarnRulesEngine) CanClaimDailyBonus(rec *ProgressRecord, now time.Time) bool {
	if rec == nil || rec.LastDailyBonusAt == nil {
		return true
	}
	return e.Clock.Day(*rec.LastDailyBonusAt) != e.Clock.Day(now)
}

// CanCreditChampionView reports whether viewing championID would credit points for rec at now.
func (e *EarnRulesEngine) CanCreditChampionView(rec *ProgressRecord, championID int64, now time.Time) bool {
	if rec == nil {
		return true
	}
	return rec.ViewedChampionLog[championID] != e.Clock.Day(now)
}
