package session

import (
	"errors"
	"time"

	"github.com/towerdesk/towerdesk/internal/auth"
)

// Token is a persisted opaque session credential. It is written once at
// issuance and only ever mutated by invalidation or the expiry sweep.
type Token struct {
	Value     string        `json:"value"`
	UserID    string        `json:"user_id"`
	UserType  auth.UserType `json:"user_type"`
	IssuedAt  time.Time     `json:"issued_at"`
	ExpiresAt time.Time     `json:"expires_at"`
	Valid     bool          `json:"valid"`
}

// Identity is the identity bound to a validated token. It is produced
// only by Service.Validate, so holding one proves the token check
// already happened.
type Identity struct {
	UserID   string
	UserType auth.UserType
}

var (
	// ErrTokenNotFound indicates the token was never issued or has been
	// removed by the expiry sweep.
	ErrTokenNotFound = errors.New("session: token not found")
	// ErrTokenInvalidated indicates the token was explicitly revoked.
	ErrTokenInvalidated = errors.New("session: token invalidated")
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("session: token expired")
)
