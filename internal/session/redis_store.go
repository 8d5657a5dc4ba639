package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps the session in redis so several console hosts can share a login.
type redisStore struct {
	client redis.UniversalClient
	prefix string
}

func openRedis(addr, prefix string) Store {
	return newRedisStore(redis.NewClient(&redis.Options{Addr: addr}), prefix)
}

func newRedisStore(client redis.UniversalClient, prefix string) *redisStore {
	return &redisStore{client: client, prefix: prefix}
}

func (r *redisStore) tokenKey() string { return r.prefix + TokenKey }
func (r *redisStore) roleKey() string  { return r.prefix + RoleKey }

func (r *redisStore) Get(ctx context.Context) (Session, error) {
	vals, err := r.client.MGet(ctx, r.tokenKey(), r.roleKey()).Result()
	if err != nil {
		return Session{}, fmt.Errorf("redis mget session: %w", err)
	}

	var s Session
	if v, ok := vals[0].(string); ok {
		s.Token = v
	}
	if v, ok := vals[1].(string); ok {
		s.Role = v
	}
	return s, nil
}

func (r *redisStore) Set(ctx context.Context, s Session) error {
	if err := validate(s); err != nil {
		return err
	}
	if err := r.client.MSet(ctx, r.tokenKey(), s.Token, r.roleKey(), s.Role).Err(); err != nil {
		return fmt.Errorf("redis mset session: %w", err)
	}
	return nil
}

// Clear removes both keys with a single DEL.
func (r *redisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey(), r.roleKey()).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
