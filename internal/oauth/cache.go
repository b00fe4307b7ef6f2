package oauth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// RefreshLeeway is how long before expiry a cached token is replaced.
const RefreshLeeway = 5 * time.Minute

// CachingSource shares one access token across concurrent sends for the
// life of the process. Concurrent refreshes collapse into a single exchange.
type CachingSource struct {
	source TokenSource
	logger *slog.Logger

	mu    sync.RWMutex
	token AccessToken
	group singleflight.Group

	// Now is the clock used for expiry checks. Tests replace it.
	Now func() time.Time
}

// NewCachingSource wraps source with an in-memory cache.
func NewCachingSource(source TokenSource, logger *slog.Logger) *CachingSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingSource{source: source, logger: logger, Now: time.Now}
}

// Token returns the cached token, exchanging for a new one when it is
// missing or inside the refresh window.
func (c *CachingSource) Token(ctx context.Context) (AccessToken, error) {
	c.mu.RLock()
	tok := c.token
	c.mu.RUnlock()
	if tok.Valid(c.Now(), RefreshLeeway) {
		return tok, nil
	}
	return c.refresh(ctx)
}

// Refresh forces a new exchange regardless of the cached token's age.
func (c *CachingSource) Refresh(ctx context.Context) (AccessToken, error) {
	return c.refresh(ctx)
}

// Expiry returns the cached token's expiry, or the zero time.
func (c *CachingSource) Expiry() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token.Expiry
}

// refresh runs one exchange for every concurrent caller. The exchange is
// detached from the leading caller's cancellation so followers on live
// requests are not failed by it; the exchanger's client timeout bounds it.
func (c *CachingSource) refresh(ctx context.Context) (AccessToken, error) {
	exchangeCtx := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do("token", func() (any, error) {
		tok, err := c.source.Token(exchangeCtx)
		if err != nil {
			return AccessToken{}, err
		}
		c.mu.Lock()
		c.token = tok
		c.mu.Unlock()
		c.logger.Info("Access token refreshed", "expiry", tok.Expiry.Format(time.RFC3339))
		return tok, nil
	})
	if err != nil {
		return AccessToken{}, err
	}
	if shared {
		c.logger.Debug("Access token refresh shared")
	}
	return v.(AccessToken), nil
}
