package blacklist

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "token_blacklist:"

// RedisStore is a Store backed by a shared redis instance. Entries carry a
// TTL matching the token's remaining lifetime, so redis handles expiry-based
// cleanup on its own.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a redis-backed blacklist using client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(jti string) string {
	return redisKeyPrefix + jti
}

// Add records jti until expiresAt. Already-expired tokens are not stored.
func (s *RedisStore) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key(jti), "1", ttl).Err()
}

// Has reports whether jti is currently blacklisted.
func (s *RedisStore) Has(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Remove drops jti from the blacklist.
func (s *RedisStore) Remove(ctx context.Context, jti string) error {
	return s.client.Del(ctx, s.key(jti)).Err()
}

// Cleanup is a no-op; redis expires entries by TTL.
func (s *RedisStore) Cleanup(ctx context.Context) (int, error) {
	return 0, nil
}

// Shutdown is a no-op; the redis client is owned by the process wiring.
func (s *RedisStore) Shutdown() {}
