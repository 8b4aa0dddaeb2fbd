package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 5 * time.Second

// RedisStore keeps the session in one redis hash, gamex:session:<profile>,
// so several machines can share a login.
type RedisStore struct {
	recordStore
}

// NewRedisStore uses rdb for the given profile. The caller owns rdb.
func NewRedisStore(rdb redis.UniversalClient, profile string) *RedisStore {
	if profile == "" {
		profile = defaultName
	}
	s := &RedisStore{}
	s.b = &redisBackend{rdb: rdb, key: "gamex:session:" + profile}
	return s
}

type redisBackend struct {
	rdb redis.UniversalClient
	key string
}

func (r *redisBackend) get() (Session, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	fields, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return Session{}, false, err
	}
	if len(fields) == 0 {
		return Session{}, false, nil
	}
	return Session{Token: fields["token"], Role: fields["role"]}, true, nil
}

// put replaces the hash inside MULTI/EXEC so readers never see a token
// paired with a stale role.
func (r *redisBackend) put(sess Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, "token", sess.Token, "role", sess.Role)
		return nil
	})
	return err
}

func (r *redisBackend) del() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return r.rdb.Del(ctx, r.key).Err()
}
