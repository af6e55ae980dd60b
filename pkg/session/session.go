// Package session issues and verifies the dashboard's session credentials.
//
// A credential is a compact JWS (HS256 over a shared key) carrying the
// subject id and the usual iat/exp pair. Verification is strict: only HS256
// is accepted, expiry is checked with a small clock-skew allowance, and any
// parse or signature failure is an error; callers treat every error as "no
// identity".
//
// Sessions slide: once a token has aged past the refresh threshold,
// Resolve returns a newly signed replacement alongside the subject. The
// caller owns propagating that replacement to the response.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// Token lifetime defaults.
const (
	defaultTTL          = 24 * time.Hour
	defaultRefreshAfter = 15 * time.Minute

	// clockSkew allows for drift between the issuing and verifying hosts.
	clockSkew = 30 * time.Second
)

// ErrExpired is returned for structurally valid tokens past their expiry.
var ErrExpired = errors.New("session expired")

// Claims is the session token payload.
type Claims struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Manager signs, verifies, and rotates session tokens.
type Manager struct {
	key          []byte
	signer       jose.Signer
	ttl          time.Duration
	refreshAfter time.Duration
	logger       *slog.Logger

	// now is swappable for expiry and rotation tests.
	now func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithRefreshAfter sets the age past which Resolve rotates the token.
func WithRefreshAfter(d time.Duration) Option {
	return func(m *Manager) { m.refreshAfter = d }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session manager signing with key. The key must be at
// least 32 bytes; shorter keys are a configuration error, not a runtime
// degradation.
func NewManager(key []byte, opts ...Option) (*Manager, error) {
	if len(key) < 32 {
		return nil, fmt.Errorf("session key must be at least 32 bytes, got %d", len(key))
	}

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to construct session signer: %w", err)
	}

	m := &Manager{
		key:          key,
		signer:       signer,
		ttl:          defaultTTL,
		refreshAfter: defaultRefreshAfter,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue signs a fresh session token for userID.
func (m *Manager) Issue(userID string) (string, error) {
	now := m.now()
	claims := Claims{
		Subject:   userID,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(m.ttl).Unix(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session claims: %w", err)
	}

	obj, err := m.signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	token, err := obj.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize session token: %w", err)
	}
	return token, nil
}

// Verify parses and validates token, returning its claims.
func (m *Manager) Verify(token string) (*Claims, error) {
	obj, err := jose.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}

	payload, err := obj.Verify(m.key)
	if err != nil {
		return nil, fmt.Errorf("session signature verification failed: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("invalid session claims: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("session token missing subject")
	}

	now := m.now()
	if claims.IssuedAt == 0 {
		return nil, fmt.Errorf("session token missing iat")
	}
	if time.Unix(claims.IssuedAt, 0).After(now.Add(clockSkew)) {
		return nil, fmt.Errorf("session token issued in the future")
	}
	if claims.ExpiresAt == 0 || now.After(time.Unix(claims.ExpiresAt, 0).Add(clockSkew)) {
		return nil, ErrExpired
	}

	return &claims, nil
}

// Resolve verifies token and returns its subject. When the token has aged
// past the refresh threshold a rotated replacement is returned as the
// second value; it is empty when no rotation happened.
func (m *Manager) Resolve(token string) (string, string, error) {
	claims, err := m.Verify(token)
	if err != nil {
		return "", "", err
	}

	refreshed := ""
	if m.now().Sub(time.Unix(claims.IssuedAt, 0)) > m.refreshAfter {
		refreshed, err = m.Issue(claims.Subject)
		if err != nil {
			// Rotation failure is not an authentication failure: the caller
			// stays logged in on the old token.
			m.logger.Warn("session rotation failed", "user", claims.Subject, "error", err)
			refreshed = ""
		}
	}

	return claims.Subject, refreshed, nil
}
