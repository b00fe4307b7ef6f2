// Package oauth exchanges signed service-account assertions for bearer
// access tokens using the OAuth2 jwt-bearer grant.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/albapepper/reportpush/internal/apperr"
	"github.com/albapepper/reportpush/internal/credential"
	"github.com/albapepper/reportpush/internal/metrics"
)

// GrantType is the assertion grant registered by RFC 7523.
const GrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// AccessToken is a bearer token and the time it stops being usable.
type AccessToken struct {
	Value  string
	Expiry time.Time
}

// Valid reports whether the token is set and will not expire within leeway.
func (t AccessToken) Valid(now time.Time, leeway time.Duration) bool {
	return t.Value != "" && now.Add(leeway).Before(t.Expiry)
}

// TokenSource yields an access token for the push provider.
type TokenSource interface {
	Token(ctx context.Context) (AccessToken, error)
}

// tokenResponse is the success body of the token endpoint.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Exchanger signs a fresh assertion and trades it for an access token on
// every call. It holds no state between calls.
type Exchanger struct {
	signer     *credential.Signer
	tokenURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewExchanger creates an exchanger that posts to tokenURL. An empty
// tokenURL uses the audience named by the credential.
func NewExchanger(signer *credential.Signer, tokenURL string, timeout time.Duration, logger *slog.Logger) *Exchanger {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenURL == "" {
		tokenURL = signer.Account().Audience()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Exchanger{
		signer:     signer,
		tokenURL:   tokenURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Token signs and exchanges; it satisfies TokenSource.
func (e *Exchanger) Token(ctx context.Context) (AccessToken, error) {
	issued := e.signer.Now()
	assertion, err := e.signer.Sign()
	if err != nil {
		return AccessToken{}, err
	}
	tok, err := e.Exchange(ctx, assertion)
	if err != nil {
		metrics.TokenExchanges.WithLabelValues("failure").Inc()
		return AccessToken{}, err
	}
	metrics.TokenExchanges.WithLabelValues("success").Inc()
	// The provider's expires_in is not trusted; the assertion bounds it.
	tok.Expiry = issued.Add(credential.AssertionLifetime)
	return tok, nil
}

// Exchange posts the assertion to the token endpoint. Expiry on the returned
// token is left zero; Token fills it from the assertion lifetime.
func (e *Exchanger) Exchange(ctx context.Context, assertion string) (AccessToken, error) {
	const op = "oauth.Exchange"

	form := url.Values{
		"grant_type": {GrantType},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return AccessToken{}, apperr.Wrap(apperr.KindInternal, op, "create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return AccessToken{}, apperr.Wrap(apperr.KindAuth, op, "token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AccessToken{}, apperr.Wrap(apperr.KindAuth, op, "read token response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e.logger.Error("Token request rejected",
			"status", resp.StatusCode, "body", truncate(body, 500))
		return AccessToken{}, &apperr.Error{
			Kind:    apperr.KindAuth,
			Op:      op,
			Message: "token request rejected",
			Status:  resp.StatusCode,
			Body:    truncate(body, 500),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return AccessToken{}, apperr.Wrap(apperr.KindAuth, op, "decode token response", err)
	}
	if tr.AccessToken == "" {
		return AccessToken{}, &apperr.Error{
			Kind:    apperr.KindAuth,
			Op:      op,
			Message: "token response has no access_token",
			Status:  resp.StatusCode,
			Body:    truncate(body, 500),
		}
	}

	e.logger.Debug("Access token obtained", "token_type", tr.TokenType, "expires_in", tr.ExpiresIn)
	return AccessToken{Value: tr.AccessToken}, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

// String hides the token value so it cannot leak through %v.
func (t AccessToken) String() string {
	return fmt.Sprintf("AccessToken{expiry=%s}", t.Expiry.Format(time.RFC3339))
}
