package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/reportpush/internal/config"
	"github.com/albapepper/reportpush/internal/credential"
	"github.com/albapepper/reportpush/internal/oauth"
)

// GatewayConfig names where the service account lives and how to reach the
// token and push endpoints.
type GatewayConfig struct {
	ServiceAccountJSON string
	ServiceAccountFile string
	ProjectID          string // overrides the credential's project_id
	TokenURL           string
	FCMBaseURL         string
	Timeout            time.Duration
	Workers            int
	CacheTokens        bool
}

// GatewayConfigFrom maps the environment configuration onto a GatewayConfig.
func GatewayConfigFrom(cfg *config.Config) GatewayConfig {
	return GatewayConfig{
		ServiceAccountJSON: cfg.ServiceAccountJSON,
		ServiceAccountFile: cfg.ServiceAccountFile,
		ProjectID:          cfg.FirebaseProjectID,
		TokenURL:           cfg.OAuthTokenURL,
		FCMBaseURL:         cfg.FCMBaseURL,
		Timeout:            cfg.PushTimeout,
		Workers:            cfg.DispatchWorkers,
		CacheTokens:        cfg.TokenCacheEnabled,
	}
}

// GatewayStatus is the non-secret view of the gateway's configuration.
type GatewayStatus struct {
	Configured  bool      `json:"configured"`
	ProjectID   string    `json:"projectId,omitempty"`
	ClientEmail string    `json:"clientEmail,omitempty"`
	TokenCache  bool      `json:"tokenCache"`
	TokenExpiry time.Time `json:"tokenExpiry,omitzero"`
	Error       string    `json:"error,omitempty"`
}

// Gateway loads the service account on first use and holds the token source
// and dispatcher built from it. A credential that fails to load is retried on
// the next call, so a fixed secret takes effect without a restart.
type Gateway struct {
	cfg    GatewayConfig
	logger *slog.Logger

	mu         sync.Mutex
	account    *credential.ServiceAccount
	tokens     oauth.TokenSource
	cache      *oauth.CachingSource
	dispatcher *Dispatcher
}

// NewGateway creates a gateway. No credential is read until it is needed.
func NewGateway(cfg GatewayConfig, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{cfg: cfg, logger: logger}
}

// open returns the token source and dispatcher, loading the credential if
// that has not succeeded yet.
func (g *Gateway) open() (oauth.TokenSource, *Dispatcher, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.tokens != nil {
		return g.tokens, g.dispatcher, nil
	}

	sa, err := credential.Load(g.cfg.ServiceAccountJSON, g.cfg.ServiceAccountFile)
	if err != nil {
		return nil, nil, err
	}
	signer, err := credential.NewSigner(sa)
	if err != nil {
		return nil, nil, err
	}

	projectID := sa.ProjectID
	if g.cfg.ProjectID != "" {
		projectID = g.cfg.ProjectID
	}

	var tokens oauth.TokenSource = oauth.NewExchanger(signer, g.cfg.TokenURL, g.cfg.Timeout, g.logger)
	if g.cfg.CacheTokens {
		g.cache = oauth.NewCachingSource(tokens, g.logger)
		tokens = g.cache
	}

	sender := NewFCMSender(g.cfg.FCMBaseURL, projectID, g.cfg.Timeout, g.logger)
	g.account = sa
	g.tokens = tokens
	g.dispatcher = NewDispatcher(sender, g.cfg.Workers, g.logger)

	g.logger.Info("Push credential loaded",
		"client_email", sa.ClientEmail, "project_id", projectID, "token_cache", g.cfg.CacheTokens)
	return g.tokens, g.dispatcher, nil
}

// Token returns an access token for the push API.
func (g *Gateway) Token(ctx context.Context) (oauth.AccessToken, error) {
	tokens, _, err := g.open()
	if err != nil {
		return oauth.AccessToken{}, err
	}
	return tokens.Token(ctx)
}

// Dispatch fans n out to deviceTokens. Without a loaded credential every
// device gets a failed outcome.
func (g *Gateway) Dispatch(ctx context.Context, token oauth.AccessToken, req Request, n Notification, recipient Recipient, deviceTokens []string) []Outcome {
	_, d, err := g.open()
	if err != nil {
		outcomes := make([]Outcome, len(deviceTokens))
		for i, t := range deviceTokens {
			outcomes[i] = Outcome{Token: fragment(t), Error: err.Error()}
		}
		return outcomes
	}
	return d.Dispatch(ctx, token, req, n, recipient, deviceTokens)
}

// Refresh replaces the cached access token. It is a no-op when caching is
// off or the credential cannot be loaded.
func (g *Gateway) Refresh(ctx context.Context) (time.Time, error) {
	if !g.cfg.CacheTokens {
		return time.Time{}, nil
	}
	if _, _, err := g.open(); err != nil {
		return time.Time{}, err
	}
	tok, err := g.cache.Refresh(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return tok.Expiry, nil
}

// Status reports whether a credential is usable. Key material is never
// included.
func (g *Gateway) Status() GatewayStatus {
	st := GatewayStatus{TokenCache: g.cfg.CacheTokens}
	if _, _, err := g.open(); err != nil {
		st.Error = err.Error()
		return st
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	st.Configured = true
	st.ClientEmail = g.account.ClientEmail
	st.ProjectID = g.dispatcher.sender.ProjectID()
	if g.cache != nil {
		st.TokenExpiry = g.cache.Expiry()
	}
	return st
}
