package credential

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/albapepper/reportpush/internal/apperr"
)

// AssertionLifetime is fixed; Google rejects assertions valid for longer.
const AssertionLifetime = time.Hour

// Signer mints signed assertions for one service account. The private key is
// parsed once on construction.
type Signer struct {
	account *ServiceAccount
	key     *rsa.PrivateKey
	scope   string

	// Now is the clock used for iat/exp. Tests replace it.
	Now func() time.Time
}

// NewSigner parses the account's private key. A key that cannot be decoded
// is a signing error, not a configuration error: the credential itself was
// well-formed.
func NewSigner(sa *ServiceAccount) (*Signer, error) {
	if sa == nil {
		return nil, apperr.New(apperr.KindConfiguration, "credential.NewSigner", "service account credential is not set")
	}
	key, err := parsePrivateKey(sa.PrivateKey)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindSigning, "credential.NewSigner", "import private key", err)
	}
	return &Signer{
		account: sa,
		key:     key,
		scope:   MessagingScope,
		Now:     time.Now,
	}, nil
}

// Account returns the service account the signer was built from.
func (s *Signer) Account() *ServiceAccount { return s.account }

// Sign returns a compact RS256 assertion valid for AssertionLifetime.
func (s *Signer) Sign() (string, error) {
	now := s.Now().Unix()
	// aud must serialize as a single string, which jwt.RegisteredClaims
	// does not do by default.
	claims := jwt.MapClaims{
		"iss":   s.account.ClientEmail,
		"scope": s.scope,
		"aud":   s.account.Audience(),
		"iat":   now,
		"exp":   now + int64(AssertionLifetime/time.Second),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.account.PrivateKeyID != "" {
		token.Header["kid"] = s.account.PrivateKeyID
	}

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", apperr.Wrap(apperr.KindSigning, "credential.Sign", "sign assertion", err)
	}
	return signed, nil
}

// normalizeKey turns escaped newline sequences back into real ones. Keys
// pasted into environment variables usually arrive with literal "\n".
func normalizeKey(raw string) string {
	key := strings.ReplaceAll(raw, `\r\n`, "\n")
	key = strings.ReplaceAll(key, `\n`, "\n")
	key = strings.ReplaceAll(key, "\r\n", "\n")
	return strings.TrimSpace(key)
}

func parsePrivateKey(raw string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(normalizeKey(raw)))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Older keys are PKCS1-encoded.
		if rsaKey, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes); pkcs1Err == nil {
			return rsaKey, nil
		}
		return nil, fmt.Errorf("parse PKCS8 key: %w", err)
	}

	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", parsed)
	}
	return rsaKey, nil
}
