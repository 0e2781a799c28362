package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "towerdesk:token:"

// RedisStore implements Store on Redis with one JSON payload per token.
// Keys carry a generous TTL as a safety net against sweep gaps; the
// sweep itself remains the authoritative removal path so counts stay
// observable.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis token store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Insert persists a newly issued token.
func (s *RedisStore) Insert(ctx context.Context, t Token) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("session: marshal token: %w", err)
	}
	ttl := 2 * time.Until(t.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, redisKeyPrefix+t.Value, data, ttl).Err()
}

// Get fetches a token by its opaque value.
func (s *RedisStore) Get(ctx context.Context, value string) (Token, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+value).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Token{}, ErrTokenNotFound
		}
		return Token{}, err
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return Token{}, fmt.Errorf("session: unmarshal token: %w", err)
	}
	return t, nil
}

// Invalidate flips a token to invalid. Returns false when the token is
// absent or already invalid.
func (s *RedisStore) Invalidate(ctx context.Context, value string) (bool, error) {
	key := redisKeyPrefix + value
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return false, fmt.Errorf("session: unmarshal token: %w", err)
	}
	if !t.Valid {
		return false, nil
	}
	t.Valid = false
	updated, err := json.Marshal(t)
	if err != nil {
		return false, fmt.Errorf("session: marshal token: %w", err)
	}
	if err := s.client.Set(ctx, key, updated, redis.KeepTTL).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteExpired scans all token keys and removes those at or past their
// expiry, reporting the number deleted.
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return removed, err
		}
		var t Token
		if err := json.Unmarshal(data, &t); err != nil {
			return removed, fmt.Errorf("session: unmarshal token: %w", err)
		}
		if t.ExpiresAt.After(now) {
			continue
		}
		n, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return removed, err
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}

var _ Store = (*RedisStore)(nil)
