package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries under gamex:cache:<origin>:<key> with a redis
// expiry equal to the TTL.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed cache. ttl <= 0 uses DefaultTTL.
func NewRedisStore(rdb redis.UniversalClient, baseURL string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, prefix: "gamex:cache:" + originHash(baseURL) + ":", ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string, dst any) bool {
	if disabled() {
		return false
	}
	data, err := s.rdb.Get(ctx, s.prefix+sanitizeKey(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Debug("cache read failed", "key", key, "error", err)
		}
		return false
	}
	return decodeEntry(data, s.ttl, dst)
}

func (s *RedisStore) Put(ctx context.Context, key string, v any) {
	if disabled() {
		return
	}
	data, err := encode(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, s.prefix+sanitizeKey(key), data, s.ttl).Err(); err != nil {
		slog.Debug("cache write failed", "key", key, "error", err)
	}
}

// Clear deletes every entry for this origin.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}
