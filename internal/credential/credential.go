// Package credential loads a Firebase service-account key and signs the
// short-lived RS256 assertions exchanged for OAuth2 access tokens.
package credential

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/albapepper/reportpush/internal/apperr"
)

// DefaultTokenURI is the Google OAuth2 token endpoint, used as the assertion
// audience when the key does not name one.
const DefaultTokenURI = "https://oauth2.googleapis.com/token"

// MessagingScope is the OAuth2 scope required by the FCM HTTP v1 API.
const MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// ServiceAccount is the subset of a downloaded service-account JSON key the
// push pipeline needs. It is immutable once loaded.
type ServiceAccount struct {
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id"`
	ProjectID    string `json:"project_id"`
	TokenURI     string `json:"token_uri"`
}

// Audience returns the token endpoint the assertion is addressed to.
func (sa *ServiceAccount) Audience() string {
	if sa.TokenURI != "" {
		return sa.TokenURI
	}
	return DefaultTokenURI
}

// Parse decodes a service-account key. The raw value may arrive
// double-encoded from a secret store (wrapped in quotes, with escaped quotes
// and backslashes), so it is unwrapped before decoding.
func Parse(raw string) (*ServiceAccount, error) {
	const op = "credential.Parse"

	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, apperr.New(apperr.KindConfiguration, op, "service account credential is not set")
	}
	if len(cleaned) >= 2 && strings.HasPrefix(cleaned, `"`) && strings.HasSuffix(cleaned, `"`) {
		cleaned = unescape(cleaned[1 : len(cleaned)-1])
	}

	var sa ServiceAccount
	if err := json.Unmarshal([]byte(cleaned), &sa); err != nil {
		// Escaped JSON stored without the surrounding quotes.
		if !strings.Contains(cleaned, `\"`) {
			return nil, apperr.Wrap(apperr.KindConfiguration, op, "service account credential is not valid JSON", err)
		}
		if err := json.Unmarshal([]byte(unescape(cleaned)), &sa); err != nil {
			return nil, apperr.Wrap(apperr.KindConfiguration, op, "service account credential is not valid JSON", err)
		}
	}

	var missing []string
	if sa.ClientEmail == "" {
		missing = append(missing, "client_email")
	}
	if sa.PrivateKey == "" {
		missing = append(missing, "private_key")
	}
	if sa.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if len(missing) > 0 {
		return nil, apperr.New(apperr.KindConfiguration, op,
			"service account credential is missing "+strings.Join(missing, ", "))
	}
	return &sa, nil
}

// unescape undoes one level of string escaping of quotes and backslashes.
func unescape(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

// Load reads the credential from an inline JSON value, falling back to a
// key file. Inline wins when both are set.
func Load(inline, file string) (*ServiceAccount, error) {
	if strings.TrimSpace(inline) != "" || file == "" {
		return Parse(inline)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "credential.Load", "read service account file", err)
	}
	return Parse(string(data))
}
