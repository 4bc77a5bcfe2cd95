package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultExpiration bounds how long upstream responses are retained.
var DefaultExpiration = 24 * time.Hour

// ErrDisabled is returned by every method when no redis host is configured.
// Callers treat it like a miss.
var ErrDisabled = errors.New("cache: redis not configured")

// Redis is a thin response cache. The core never persists its own state;
// this only caches upstream responses (detail pages, metadata lookups) to
// spare the trackers. A nil *Redis is valid and disables caching.
type Redis struct {
	client *redis.Client
}

// NewRedis builds a client from REDIS_HOST. Returns nil (caching disabled)
// when the variable is unset.
func NewRedis() *Redis {
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		return nil
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:6379", redisHost),
			Password: "",
		}),
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if r == nil {
		return nil, ErrDisabled
	}
	return r.client.Get(ctx, key).Bytes()
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if r == nil {
		return ErrDisabled
	}
	return r.client.Set(ctx, key, value, DefaultExpiration).Err()
}

func (r *Redis) SetWithExpiration(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if r == nil {
		return ErrDisabled
	}
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *Redis) Del(ctx context.Context, key string) error {
	if r == nil {
		return ErrDisabled
	}
	return r.client.Del(ctx, key).Err()
}
