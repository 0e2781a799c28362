package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/towerdesk/towerdesk/internal/auth"
)

// DefaultTTL is the token lifetime applied when configuration leaves it
// unset.
const DefaultTTL = time.Hour

// Config holds token issuance settings.
type Config struct {
	TTL time.Duration
}

// Service issues, validates and revokes opaque session tokens.
type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewService constructs a Service over the given store.
func NewService(store Store, cfg Config) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, ttl: ttl, now: time.Now}
}

// Issue creates a new token bound to the given identity. Issuing never
// touches previously issued tokens; concurrent sessions per user are
// allowed.
func (s *Service) Issue(ctx context.Context, userID string, userType auth.UserType) (string, error) {
	if userID == "" {
		return "", auth.ErrInvalidInput
	}
	value, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	now := s.now().UTC()
	t := Token{
		Value:     value,
		UserID:    userID,
		UserType:  userType,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
		Valid:     true,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return "", fmt.Errorf("session: store token: %w", err)
	}
	return value, nil
}

// Validate checks a token and returns the identity bound to it. It is a
// pure read: no state changes and no sliding expiration.
func (s *Service) Validate(ctx context.Context, value string) (Identity, error) {
	if value == "" {
		return Identity{}, ErrTokenNotFound
	}
	t, err := s.store.Get(ctx, value)
	if err != nil {
		return Identity{}, err
	}
	if !t.Valid {
		return Identity{}, ErrTokenInvalidated
	}
	if !s.now().Before(t.ExpiresAt) {
		return Identity{}, ErrTokenExpired
	}
	return Identity{UserID: t.UserID, UserType: t.UserType}, nil
}

// Invalidate marks a token unusable. Absent or already-invalid tokens
// return false without error, so callers can treat revocation as
// idempotent.
func (s *Service) Invalidate(ctx context.Context, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return s.store.Invalidate(ctx, value)
}

// CleanupExpired removes every token at or past its expiry and returns
// the number removed. Safe to run repeatedly; a second immediate call
// affects nothing.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}

// TTL exposes the configured token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
