package cache

import (
	"context"
	"time"

	"leadqual_backend/platform/config"
	"leadqual_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by a Redis server. Failures are logged and
// treated as misses; a broken cache must never break scoring.
type Redis struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedis creates a Redis cache from configuration.
func NewRedis(cfg config.RedisConfig, log *logger.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.GetRedisPassword(),
		DB:       cfg.GetRedisDB(),
	})
	return &Redis{client: client, log: log}
}

// NewRedisWithClient wraps an existing client, mainly for tests.
func NewRedisWithClient(client *redis.Client, log *logger.Logger) *Redis {
	return &Redis{client: client, log: log}
}

// Get returns the cached value for key, treating any error as a miss.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil && r.log != nil {
			r.log.CacheError("get", err)
		}
		return "", false
	}
	return value, true
}

// Set stores value under key for ttl. Errors are logged and swallowed.
func (r *Redis) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil && r.log != nil {
		r.log.CacheError("set", err)
	}
}

// Ping verifies connectivity, for startup health checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
