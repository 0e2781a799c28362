package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists session tokens. Implementations must keep tokens
// unique by value; expiry judgement is the Service's job, stores only
// hold and sweep rows.
type Store interface {
	Insert(ctx context.Context, t Token) error
	Get(ctx context.Context, value string) (Token, error)
	Invalidate(ctx context.Context, value string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL token store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Insert persists a newly issued token.
func (s *PGStore) Insert(ctx context.Context, t Token) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO session_tokens (token, user_id, user_type, issued_at, expires_at, valid)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.Value, t.UserID, string(t.UserType), t.IssuedAt, t.ExpiresAt, t.Valid)
	return err
}

// Get fetches a token by its opaque value.
func (s *PGStore) Get(ctx context.Context, value string) (Token, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT token, user_id, user_type, issued_at, expires_at, valid
		 FROM session_tokens WHERE token = $1`, value)
	var t Token
	if err := row.Scan(&t.Value, &t.UserID, &t.UserType, &t.IssuedAt, &t.ExpiresAt, &t.Valid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Token{}, ErrTokenNotFound
		}
		return Token{}, err
	}
	return t, nil
}

// Invalidate flips a token to invalid. Returns false when the token is
// absent or already invalid.
func (s *PGStore) Invalidate(ctx context.Context, value string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE session_tokens SET valid = FALSE WHERE token = $1 AND valid = TRUE`, value)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteExpired removes every token at or past its expiry and reports
// how many rows were affected.
func (s *PGStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM session_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// EnsureSchema creates the session_tokens table when missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS session_tokens (
			token      TEXT PRIMARY KEY,
			user_id    UUID NOT NULL REFERENCES principals (id),
			user_type  TEXT NOT NULL,
			issued_at  TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			valid      BOOLEAN NOT NULL DEFAULT TRUE
		)`)
	if err != nil {
		return fmt.Errorf("session: ensure schema: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS idx_session_tokens_expires_at ON session_tokens (expires_at)`)
	if err != nil {
		return fmt.Errorf("session: ensure schema: %w", err)
	}
	return nil
}

var _ Store = (*PGStore)(nil)
