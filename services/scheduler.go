// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// PruneExpiredViews drops champion-view marks older than retentionDays ledger-days.
// Today's marks are always kept, so a retention below 1 is treated as 1.
func (s *LedgerStore) PruneExpiredViews(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		retentionDays = 1
	}
	cutoff := s.Clock.DaysAgo(retentionDays - 1)
	return s.PruneChampionViews(ctx, cutoff)
}

// StartMaintenanceScheduler runs ledger housekeeping shortly after each ledger-day rollover.
// Earn windows do not depend on it: they reset purely by comparing ledger-days.
func StartMaintenanceScheduler(ledger *LedgerStore, retentionDays int) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(ledger.Clock.Loc))
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			n, err := ledger.PruneExpiredViews(ctx, retentionDays)
			if err != nil {
				log.Printf("[SCHEDULER] Failed to prune champion views: %v", err)
				return
			}
			log.Printf("[SCHEDULER] 🧹 Pruned %d champion view mark(s) older than %d day(s)", n, retentionDays)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
