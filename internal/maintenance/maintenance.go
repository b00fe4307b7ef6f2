// Package maintenance runs periodic background tasks as Go tickers. All
// scheduled work is driven from Go since the API is already a persistent,
// long-running service (required for LISTEN/NOTIFY).
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes old dispatch summaries. *db.Pool implements it.
type Purger interface {
	PurgeDispatchLog(ctx context.Context, maxAge time.Duration) (int64, error)
}

// TokenRefresher replaces the cached access token.
// *notifications.Gateway implements it.
type TokenRefresher interface {
	Refresh(ctx context.Context) (time.Time, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval  time.Duration // Old dispatch_log rows
	RetainDispatches time.Duration // Age after which dispatch_log rows are purged
	PrewarmInterval  time.Duration // Access token refresh ahead of expiry
}

// DefaultConfig returns sensible production defaults. Prewarm runs well
// inside the one-hour token lifetime so sends never wait on an exchange.
func DefaultConfig() Config {
	return Config{
		CleanupInterval:  6 * time.Hour,
		RetainDispatches: 30 * 24 * time.Hour,
		PrewarmInterval:  45 * time.Minute,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`. A nil purger or refresher
// disables its task.
func Start(ctx context.Context, purger Purger, tokens TokenRefresher, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"prewarm", cfg.PrewarmInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	// Cleanup: remove old dispatch summaries
	if cfg.CleanupInterval > 0 && purger != nil {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "cleanup", func() { cleanup(ctx, purger, cfg.RetainDispatches, logger) })
	}

	// Prewarm: refresh the shared access token before it expires
	if cfg.PrewarmInterval > 0 && tokens != nil {
		t := time.NewTicker(cfg.PrewarmInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "prewarm", func() { prewarm(ctx, tokens, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, name string, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// cleanup removes dispatch summaries older than maxAge.
func cleanup(ctx context.Context, purger Purger, maxAge time.Duration, logger *slog.Logger) {
	if maxAge <= 0 {
		maxAge = DefaultConfig().RetainDispatches
	}
	n, err := purger.PurgeDispatchLog(ctx, maxAge)
	if err != nil {
		logger.Warn("Cleanup: failed to purge dispatch log", "error", err)
	} else if n > 0 {
		logger.Info("Cleanup: purged dispatch log rows", "count", n)
	}
}

// prewarm refreshes the cached access token. A failure leaves the old token
// in place; the next send retries the exchange itself.
func prewarm(ctx context.Context, tokens TokenRefresher, logger *slog.Logger) {
	expiry, err := tokens.Refresh(ctx)
	if err != nil {
		logger.Warn("Prewarm: token refresh failed", "error", err)
		return
	}
	if !expiry.IsZero() {
		logger.Debug("Prewarm: token refreshed", "expiry", expiry.Format(time.RFC3339))
	}
}
