package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepo struct {
	byUsername map[string]*Principal
	lookups    int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byUsername: make(map[string]*Principal)}
}

func (r *memoryRepo) FindActiveByUsername(_ context.Context, username string) (*Principal, error) {
	r.lookups++
	p, ok := r.byUsername[username]
	if !ok || !p.Active {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memoryRepo) Insert(_ context.Context, p *Principal) error {
	if _, ok := r.byUsername[p.Username]; ok {
		return ErrDuplicateUsername
	}
	clone := *p
	r.byUsername[p.Username] = &clone
	return nil
}

func (r *memoryRepo) UpdatePassword(_ context.Context, username, passwordHash string) error {
	p, ok := r.byUsername[username]
	if !ok || !p.Active {
		return ErrNotFound
	}
	p.PasswordHash = passwordHash
	return nil
}

func (r *memoryRepo) Deactivate(_ context.Context, username string) error {
	p, ok := r.byUsername[username]
	if !ok || !p.Active {
		return ErrNotFound
	}
	p.Active = false
	return nil
}

var _ Repository = (*memoryRepo)(nil)

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	return NewService(repo, NewBcryptVerifier(bcrypt.MinCost)), repo
}

func TestAuthenticateAllRoles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		role     RoleRef
		userType UserType
		level    Level
	}{
		{RoleAdmin, UserTypeAdmin, LevelAdmin},
		{RoleStaff, UserTypeStaff, LevelStaff},
		{RoleOwner, UserTypeOwner, LevelOwner},
	}
	for _, tc := range cases {
		username := "user-" + string(tc.role)
		p, err := svc.Register(ctx, username, "correct-horse", tc.role)
		require.NoError(t, err)

		result, err := svc.Authenticate(ctx, username, "correct-horse")
		require.NoError(t, err)
		require.True(t, result.Success)
		require.Equal(t, p.ID, result.UserID)
		require.Equal(t, tc.userType, result.UserType)
		require.Equal(t, tc.level, result.Level)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "resident", "correct-horse", RoleOwner)
	require.NoError(t, err)

	result, err := svc.Authenticate(ctx, "resident", "battery-staple")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.False(t, result.Success)
	require.Zero(t, result.UserID)
}

func TestAuthenticateUnknownUserIsIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "resident", "correct-horse", RoleOwner)
	require.NoError(t, err)

	_, wrongPass := svc.Authenticate(ctx, "resident", "nope")
	_, noUser := svc.Authenticate(ctx, "ghost", "nope")
	require.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	require.ErrorIs(t, noUser, ErrInvalidCredentials)
	require.Equal(t, wrongPass.Error(), noUser.Error())
}

func TestAuthenticateInactivePrincipal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "former-staff", "correct-horse", RoleStaff)
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, "former-staff"))

	_, err = svc.Authenticate(ctx, "former-staff", "correct-horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateEmptyInputSkipsStore(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "", "pass")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Authenticate(ctx, "user", "")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Authenticate(ctx, "   ", "pass")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Zero(t, repo.lookups)
}

func TestAuthenticateUnresolvableRoleFails(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	hash, err := NewBcryptVerifier(bcrypt.MinCost).Hash("correct-horse")
	require.NoError(t, err)
	repo.byUsername["legacy"] = &Principal{
		ID:           "legacy-id",
		Username:     "legacy",
		PasswordHash: hash,
		Role:         "superintendent",
		Active:       true,
	}

	result, err := svc.Authenticate(ctx, "legacy", "correct-horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.False(t, result.Success)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "resident", "correct-horse", RoleOwner)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "resident", "other-pass", RoleStaff)
	require.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestRegisterUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), "resident", "correct-horse", "janitor")
	require.ErrorIs(t, err, ErrUnknownRole)
}

func TestRegisterStoresHashNotSecret(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Register(context.Background(), "resident", "correct-horse", RoleOwner)
	require.NoError(t, err)
	stored := repo.byUsername["resident"]
	require.NotEqual(t, "correct-horse", stored.PasswordHash)
	require.NotContains(t, stored.PasswordHash, "correct-horse")
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "resident", "old-secret-1", RoleOwner)
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, "resident", "old-secret-1", "new-secret-1"))

	_, err = svc.Authenticate(ctx, "resident", "old-secret-1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	result, err := svc.Authenticate(ctx, "resident", "new-secret-1")
	require.NoError(t, err)
	require.True(t, result.Success)
}

func TestChangePasswordWrongOldLeavesHash(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "resident", "old-secret-1", RoleOwner)
	require.NoError(t, err)
	before := repo.byUsername["resident"].PasswordHash

	err = svc.ChangePassword(ctx, "resident", "not-the-old-one", "new-secret-1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, before, repo.byUsername["resident"].PasswordHash)
}

func TestResetPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "resident", "forgotten-pass", RoleOwner)
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, "resident", "issued-by-admin"))
	result, err := svc.Authenticate(ctx, "resident", "issued-by-admin")
	require.NoError(t, err)
	require.True(t, result.Success)

	require.ErrorIs(t, svc.ResetPassword(ctx, "ghost", "whatever-pass"), ErrNotFound)
	require.ErrorIs(t, svc.ResetPassword(ctx, "resident", ""), ErrInvalidInput)
}
