package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "vakit:"

// redisClient is the part of *redis.Client the store uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Redis stores keys under the "vakit:" prefix without expiry.
type Redis struct {
	client redisClient
}

// OpenRedis connects to addr and checks the connection with PING.
func OpenRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, wrapErr(BackendRedis, "ping", "", err)
	}
	return newRedis(client), nil
}

func newRedis(c redisClient) *Redis {
	return &Redis{client: c}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return value, wrapErr(BackendRedis, "get", key, err)
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return wrapErr(BackendRedis, "set", key, r.client.Set(ctx, redisKeyPrefix+key, value, 0).Err())
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return wrapErr(BackendRedis, "delete", key, r.client.Del(ctx, redisKeyPrefix+key).Err())
}

func (r *Redis) Close() error {
	return r.client.Close()
}
