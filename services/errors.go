package services

import "errors"

var (
	// ErrUserNotFound means no progress record exists for the user.
	ErrUserNotFound = errors.New("progress record not found")
	// ErrItemNotFound means the catalog has no item with the given type and id.
	ErrItemNotFound = errors.New("catalog item not found")
	// ErrInvalidItemType is returned for an item type other than champion or skin.
	ErrInvalidItemType = errors.New("invalid item type")
	// ErrUnknownEvent is returned for an earn event kind with no rule.
	ErrUnknownEvent = errors.New("unknown earn event")
	// ErrInvalidDelta is returned for a delta that carries neither points nor a grant.
	ErrInvalidDelta = errors.New("invalid ledger delta")

	// ErrInsufficientBalance: the delta would take the balance below zero. Nothing was written.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrAlreadyGranted: the grant is already in the user's unlocked set. Nothing was written.
	ErrAlreadyGranted = errors.New("item already granted")
	// ErrWindowConsumed: the idempotency window of the mark is already used. Nothing was written.
	ErrWindowConsumed = errors.New("idempotency window already consumed")
)
