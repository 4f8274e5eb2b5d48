package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"rework-vault/models"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UnlockStatus is the terminal state of an unlock request.
type UnlockStatus string

const (
	UnlockCommitted UnlockStatus = "COMMITTED"
	UnlockRejected  UnlockStatus = "REJECTED"
)

// RejectReason tells a caller why an unlock had no effect.
type RejectReason string

const (
	ReasonNone               RejectReason = ""
	ReasonAlreadyFree        RejectReason = "ALREADY_FREE"
	ReasonAlreadyUnlocked    RejectReason = "ALREADY_UNLOCKED"
	ReasonInsufficientPoints RejectReason = "INSUFFICIENT_POINTS"
)

// UnlockResult is the structured outcome of Unlock. Rejections are values, not errors.
type UnlockResult struct {
	Success          bool            `json:"success"`
	Status           UnlockStatus    `json:"status"`
	Reason           RejectReason    `json:"reason,omitempty"`
	Message          string          `json:"message"`
	ItemType         models.ItemType `json:"item_type"`
	ItemID           int64           `json:"item_id"`
	ItemName         string          `json:"item_name,omitempty"`
	CostCharged      int64           `json:"cost"`
	ResultingBalance int64           `json:"user_points"`
	PointsNeeded     int64           `json:"points_needed,omitempty"`
}

// UnlockService is the spend-side coordinator: validate, then one atomic debit-and-grant.
type UnlockService struct {
	Ledger  *LedgerStore
	Catalog *CatalogService
	printer *message.Printer

	beforeCommit func() // test hook, runs between validation and commit
}

func NewUnlockService(ledger *LedgerStore, catalog *CatalogService) *UnlockService {
	return &UnlockService{
		Ledger:  ledger,
		Catalog: catalog,
		printer: message.NewPrinter(language.English),
	}
}

// Unlock spends points on one catalog item. Calling it again for an owned item
// returns ALREADY_UNLOCKED and never charges twice. Only storage faults and a
// missing item or user come back as errors.
func (s *UnlockService) Unlock(ctx context.Context, userID string, itemType models.ItemType, itemID int64) (*UnlockResult, error) {
	ctx, span := tracer.Start(ctx, "UnlockService.Unlock")
	defer span.End()
	span.SetAttributes(
		attribute.String("unlock.user_id", userID),
		attribute.String("unlock.item_type", string(itemType)),
		attribute.Int64("unlock.item_id", itemID),
	)

	item, err := s.Catalog.GetItem(ctx, itemType, itemID)
	if err != nil {
		return nil, err
	}

	if item.IsUnlockedByDefault {
		rec, err := s.Ledger.GetProgress(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.reject(item, ReasonAlreadyFree, rec.Points), nil
	}

	rec, err := s.Ledger.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec.HasUnlocked(item.ItemType, item.ItemID) {
		return s.reject(item, ReasonAlreadyUnlocked, rec.Points), nil
	}

	cost := item.UnlockCost
	if rec.Points < cost {
		return s.reject(item, ReasonInsufficientPoints, rec.Points), nil
	}

	if s.beforeCommit != nil {
		s.beforeCommit()
	}

	committed, err := s.Ledger.ApplyDelta(ctx, userID, Delta{
		Points:   -cost,
		Grant:    &ItemRef{Type: item.ItemType, ID: item.ItemID},
		Reason:   unlockReason(item.ItemType),
		Metadata: map[string]any{"item_name": item.Name, "cost": cost},
	})
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		// Lost a race with another spend; judge again on a fresh balance.
		fresh, gerr := s.Ledger.GetProgress(ctx, userID)
		if gerr != nil {
			return nil, gerr
		}
		log.Printf("[UNLOCK] ⚠️ %s lost commit race on %s %d (balance now %d)", userID, itemType, itemID, fresh.Points)
		return s.reject(item, ReasonInsufficientPoints, fresh.Points), nil
	case errors.Is(err, ErrAlreadyGranted):
		fresh, gerr := s.Ledger.GetProgress(ctx, userID)
		if gerr != nil {
			return nil, gerr
		}
		return s.reject(item, ReasonAlreadyUnlocked, fresh.Points), nil
	case err != nil:
		return nil, err
	}

	log.Printf("[UNLOCK] ✅ %s unlocked %s %d (%s) for %d → balance=%d", userID, itemType, itemID, item.Name, cost, committed.Points)
	span.SetAttributes(attribute.String("unlock.status", string(UnlockCommitted)))
	return &UnlockResult{
		Success:          true,
		Status:           UnlockCommitted,
		Message:          s.printer.Sprintf("%s unlocked for %d points", item.Name, cost),
		ItemType:         item.ItemType,
		ItemID:           item.ItemID,
		ItemName:         item.Name,
		CostCharged:      cost,
		ResultingBalance: committed.Points,
	}, nil
}

func (s *UnlockService) reject(item *models.CatalogItem, reason RejectReason, balance int64) *UnlockResult {
	res := &UnlockResult{
		Success:          false,
		Status:           UnlockRejected,
		Reason:           reason,
		ItemType:         item.ItemType,
		ItemID:           item.ItemID,
		ItemName:         item.Name,
		ResultingBalance: balance,
	}
	switch reason {
	case ReasonAlreadyFree:
		res.Message = fmt.Sprintf("%s is unlocked by default", item.Name)
	case ReasonAlreadyUnlocked:
		res.Message = fmt.Sprintf("%s is already unlocked", item.Name)
	case ReasonInsufficientPoints:
		res.PointsNeeded = item.UnlockCost - balance
		if res.PointsNeeded <= 0 {
			// Balance was credited between the failed commit and the re-read.
			res.PointsNeeded = 0
			res.Message = "Balance changed during unlock, please retry"
			break
		}
		res.Message = s.printer.Sprintf("Not enough points: you need %d more points", res.PointsNeeded)
	}
	return res
}

func unlockReason(t models.ItemType) models.LedgerReason {
	if t == models.ItemTypeSkin {
		return models.ReasonUnlockSkin
	}
	return models.ReasonUnlockChampion
}
