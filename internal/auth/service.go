package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	verifier PasswordVerifier
}

// NewService constructs a new Service.
func NewService(repo Repository, verifier PasswordVerifier) *Service {
	return &Service{repo: repo, verifier: verifier}
}

// Authenticate validates username/password credentials and resolves the
// principal's role. It performs no writes and issues no token; token
// issuance is an explicit follow-up step for the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return AuthResult{}, ErrInvalidInput
	}
	p, err := s.repo.FindActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("auth: lookup principal: %w", err)
	}
	if !s.verifier.Verify(password, p.PasswordHash) {
		return AuthResult{}, ErrInvalidCredentials
	}
	userType, level, err := ResolveRole(p.Role)
	if err != nil {
		// A principal with an unresolvable role never authenticates.
		return AuthResult{}, ErrInvalidCredentials
	}
	return AuthResult{Success: true, UserID: p.ID, UserType: userType, Level: level}, nil
}

// Register creates a new active principal with a hashed secret.
func (s *Service) Register(ctx context.Context, username, password string, role RoleRef) (*Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if _, _, err := ResolveRole(role); err != nil {
		return nil, err
	}
	hash, err := s.verifier.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	p := &Principal{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ChangePassword rotates a principal's secret after verifying the old
// one. Failed verification leaves the stored hash untouched.
func (s *Service) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrInvalidInput
	}
	if _, err := s.Authenticate(ctx, username, oldPassword); err != nil {
		return err
	}
	hash, err := s.verifier.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, strings.TrimSpace(username), hash)
}

// ResetPassword replaces a principal's secret without verifying the old
// one. Callers must gate this behind admin-level access.
func (s *Service) ResetPassword(ctx context.Context, username, newPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" || newPassword == "" {
		return ErrInvalidInput
	}
	hash, err := s.verifier.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, username, hash)
}

// Deactivate soft-deletes a principal so it can no longer authenticate.
func (s *Service) Deactivate(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrInvalidInput
	}
	return s.repo.Deactivate(ctx, username)
}
