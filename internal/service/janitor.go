package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultJanitorInterval is how often RunJanitor sweeps when not configured.
const DefaultJanitorInterval = 5 * time.Minute

// RunJanitor calls EvictIdle every interval until ctx is done. It returns nil
// on cancellation so it can run inside an errgroup next to the HTTP server.
func RunJanitor(ctx context.Context, svc TimesheetService, interval time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		return fmt.Errorf("janitor interval must be positive, got %s", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			resp, err := svc.EvictIdle(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.WarnContext(ctx, "idle session sweep failed", "error", err)
				continue
			}
			if len(resp.Evicted) > 0 {
				logger.InfoContext(ctx, "evicted idle sessions", "count", len(resp.Evicted))
			}
		}
	}
}
