package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/towerdesk/towerdesk/internal/auth"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func redisToken(value string, expiresAt time.Time) Token {
	return Token{
		Value:     value,
		UserID:    "user-1",
		UserType:  auth.UserTypeOwner,
		IssuedAt:  expiresAt.Add(-time.Hour),
		ExpiresAt: expiresAt,
		Valid:     true,
	}
}

func TestRedisStoreRoundtrip(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	want := redisToken("tok-1", time.Now().Add(time.Hour).UTC().Truncate(time.Second))
	require.NoError(t, store.Insert(ctx, want))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, want.UserID, got.UserID)
	require.Equal(t, want.UserType, got.UserType)
	require.True(t, got.Valid)
	require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
}

func TestRedisStoreGetAbsent(t *testing.T) {
	store := newRedisStore(t)

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRedisStoreInvalidate(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, redisToken("tok-1", time.Now().Add(time.Hour))))

	revoked, err := store.Invalidate(ctx, "tok-1")
	require.NoError(t, err)
	require.True(t, revoked)

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	require.False(t, got.Valid)

	revoked, err = store.Invalidate(ctx, "tok-1")
	require.NoError(t, err)
	require.False(t, revoked)

	revoked, err = store.Invalidate(ctx, "missing")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRedisStoreDeleteExpired(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, redisToken("stale-1", now.Add(time.Minute))))
	require.NoError(t, store.Insert(ctx, redisToken("stale-2", now.Add(2*time.Minute))))
	require.NoError(t, store.Insert(ctx, redisToken("fresh-1", now.Add(time.Hour))))

	cutoff := now.Add(30 * time.Minute)
	removed, err := store.DeleteExpired(ctx, cutoff)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	_, err = store.Get(ctx, "stale-1")
	require.ErrorIs(t, err, ErrTokenNotFound)
	_, err = store.Get(ctx, "stale-2")
	require.ErrorIs(t, err, ErrTokenNotFound)
	_, err = store.Get(ctx, "fresh-1")
	require.NoError(t, err)

	removed, err = store.DeleteExpired(ctx, cutoff)
	require.NoError(t, err)
	require.Zero(t, removed)
}
