package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RunOnce runs every task immediately, in order, and returns the first
// error. Used by `pushctl maintenance` for cron-style deployments that do
// not run the API.
func RunOnce(ctx context.Context, purger Purger, tokens TokenRefresher, cfg Config, logger *slog.Logger) error {
	if purger != nil {
		start := time.Now()
		maxAge := cfg.RetainDispatches
		if maxAge <= 0 {
			maxAge = DefaultConfig().RetainDispatches
		}
		n, err := purger.PurgeDispatchLog(ctx, maxAge)
		dur := time.Since(start).Round(time.Millisecond)
		if err != nil {
			logger.Warn("Failed to purge dispatch log", "duration", dur, "error", err)
			return fmt.Errorf("purge dispatch log: %w", err)
		}
		logger.Info("Purged dispatch log", "count", n, "duration", dur)
	}

	if tokens != nil {
		expiry, err := tokens.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("refresh token: %w", err)
		}
		logger.Info("Refreshed access token", "expiry", expiry)
	}
	return nil
}
