package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for principals.
type Repository interface {
	FindActiveByUsername(ctx context.Context, username string) (*Principal, error)
	Insert(ctx context.Context, p *Principal) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	Deactivate(ctx context.Context, username string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const uniqueViolation = "23505"

// FindActiveByUsername fetches an active principal by exact username.
func (r *PGRepository) FindActiveByUsername(ctx context.Context, username string) (*Principal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, active, created_at
		 FROM principals
		 WHERE username = $1 AND active = TRUE`, username)
	var p Principal
	if err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &p.Role, &p.Active, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Insert stores a new principal.
func (r *PGRepository) Insert(ctx context.Context, p *Principal) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO principals (id, username, password_hash, role, active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Username, p.PasswordHash, string(p.Role), p.Active, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

// UpdatePassword replaces the stored hash for an active principal.
func (r *PGRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE principals SET password_hash = $2 WHERE username = $1 AND active = TRUE`,
		username, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a principal. The row itself is never removed
// and the ID is never reused.
func (r *PGRepository) Deactivate(ctx context.Context, username string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE principals SET active = FALSE WHERE username = $1 AND active = TRUE`,
		username)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureSchema creates the principals table when missing and seeds the
// default admin account on a fresh database.
func (r *PGRepository) EnsureSchema(ctx context.Context, verifier PasswordVerifier) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS principals (
			id            UUID PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("auth: ensure schema: %w", err)
	}

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM principals`).Scan(&count); err != nil {
		return fmt.Errorf("auth: count principals: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := verifier.Hash(seedAdminPassword)
	if err != nil {
		return fmt.Errorf("auth: seed admin: %w", err)
	}
	seed := &Principal{
		ID:           uuid.NewString(),
		Username:     seedAdminUsername,
		Role:         RoleAdmin,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.Insert(ctx, seed); err != nil && !errors.Is(err, ErrDuplicateUsername) {
		return fmt.Errorf("auth: seed admin: %w", err)
	}
	return nil
}

// Bootstrap admin credentials for a fresh install. The password must be
// rotated on first login in any real deployment.
const (
	seedAdminUsername = "admin"
	seedAdminPassword = "admin123"
)

var _ Repository = (*PGRepository)(nil)
