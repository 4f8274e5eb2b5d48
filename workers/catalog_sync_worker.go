// workers/catalog_sync_worker.go
package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"rework-vault/services"
)

// CatalogSyncWorker mirrors the content catalog into catalog_items. It never
// touches balances or unlocked sets.
type CatalogSyncWorker struct {
	catalog  *services.CatalogService
	source   CatalogSource
	interval time.Duration
	prices   services.UnlockPrices

	lastSync time.Time
}

func NewCatalogSyncWorker(catalog *services.CatalogService, source CatalogSource, interval time.Duration, prices services.UnlockPrices) *CatalogSyncWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CatalogSyncWorker{
		catalog:  catalog,
		source:   source,
		interval: interval,
		prices:   prices,
	}
}

func (w *CatalogSyncWorker) Start(ctx context.Context) {
	log.Printf("🔁 Starting Catalog Sync Worker (%s → catalog_items, every %s)…", w.source.Name(), w.interval)
	go w.run(ctx)
}

func (w *CatalogSyncWorker) run(ctx context.Context) {
	// Initial sync (full backfill)
	if err := w.SyncOnce(ctx); err != nil {
		log.Printf("[CATALOG_SYNC] ⚠️ Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.SyncOnce(ctx); err != nil {
				log.Printf("[CATALOG_SYNC] ❌ Sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Catalog Sync Worker stopped")
			return
		}
	}
}

// SyncOnce fetches changes since the last successful sync and upserts them.
// On failure the window is not advanced, so the next tick retries it.
func (w *CatalogSyncWorker) SyncOnce(ctx context.Context) error {
	manifest, err := w.source.Fetch(ctx, w.lastSync)
	if err != nil {
		return fmt.Errorf("fetch from %s: %w", w.source.Name(), err)
	}
	if manifest.Len() == 0 {
		log.Printf("[CATALOG_SYNC] ✅ No catalog changes from %s", w.source.Name())
		return nil
	}

	items := toCatalogItems(manifest, w.prices)
	if err := w.catalog.UpsertItems(ctx, items); err != nil {
		return fmt.Errorf("upsert %d catalog item(s): %w", len(items), err)
	}

	if a, ok := w.source.(acker); ok {
		a.Ack()
	}
	if latest := latestUpdate(manifest); latest.After(w.lastSync) {
		w.lastSync = latest
	}
	log.Printf("[CATALOG_SYNC] ✅ Synced %d item(s) from %s (%d skipped)", len(items), w.source.Name(), manifest.Len()-len(items))
	return nil
}
