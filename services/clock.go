package services

import "time"

const ledgerDayLayout = "2006-01-02"

// LedgerClock is the single authority on "now" and "today" for the ledger.
// Days are computed in Loc (UTC unless configured), never in the caller's locale.
type LedgerClock struct {
	Loc *time.Location
	Now func() time.Time
}

// NewLedgerClock returns a wall clock in loc. A nil loc means UTC.
func NewLedgerClock(loc *time.Location) LedgerClock {
	if loc == nil {
		loc = time.UTC
	}
	return LedgerClock{Loc: loc, Now: time.Now}
}

// Current returns the current instant.
func (c LedgerClock) Current() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Day returns the ledger-day of t as YYYY-MM-DD.
func (c LedgerClock) Day(t time.Time) string {
	loc := c.Loc
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(ledgerDayLayout)
}

// Today returns the current ledger-day.
func (c LedgerClock) Today() string {
	return c.Day(c.Current())
}

// DaysAgo returns the ledger-day n days before today.
func (c LedgerClock) DaysAgo(n int) string {
	loc := c.Loc
	if loc == nil {
		loc = time.UTC
	}
	return c.Current().In(loc).AddDate(0, 0, -n).Format(ledgerDayLayout)
}
