// handlers/stream_routes.go
package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"rework-vault/middleware"
	"rework-vault/services"

	"github.com/gofiber/fiber/v2"
)

// SetupStreamRoutes registers the SSE feed clients use to invalidate cached
// balances and unlock sets after a change made elsewhere.
func SetupStreamRoutes(router fiber.Router, ledger *services.LedgerStore, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	router.Get("/progress/stream", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		done := c.Context().Done()

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				select {
				case <-done:
					cancel()
				case <-ctx.Done():
				}
			}()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			cursor := services.LedgerCursor{At: ledger.Clock.Current()}

			// Initial keepalive (comment event)
			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case <-ticker.C:
					entries, err := ledger.EntriesSince(ctx, userID, cursor)
					if err != nil {
						log.Printf("[LEDGER] SSE query error for user %s: %v", userID, err)
						continue
					}
					if len(entries) == 0 {
						// keepalive so dead clients surface as a failed flush
						w.WriteString(":\n\n")
					}
					for _, e := range entries {
						payload, _ := json.Marshal(e)
						fmt.Fprintf(w, "event: ledger\ndata: %s\n\n", payload)
						cursor.Advance(e)
					}
					if err := w.Flush(); err != nil {
						// Client disconnected
						return
					}
				case <-done:
					return
				}
			}
		})
		return nil
	})
}
