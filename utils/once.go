package utils

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// OnceGuard remembers keys for a while so that work keyed by them runs once,
// e.g. a webhook event id or a receipt for a checkout session.
type OnceGuard interface {
	// Claim returns true the first time a key is seen within the TTL.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets a key so the work can be retried.
	Release(ctx context.Context, key string) error
}

type redisOnceGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisOnceGuard builds a OnceGuard on SETNX.
func NewRedisOnceGuard(client *redis.Client, prefix string, ttl time.Duration) OnceGuard {
	return &redisOnceGuard{client: client, prefix: prefix, ttl: ttl}
}

func (g *redisOnceGuard) Claim(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, g.prefix+key, time.Now().Unix(), g.ttl).Result()
}

func (g *redisOnceGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.prefix+key).Err()
}
