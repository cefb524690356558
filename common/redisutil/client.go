package redisutil

import (
	"context"

	"github.com/ANTO-REMY/remy-care-connect-sub000/common/config"

	"github.com/go-redis/redis/v8"
)

// Client is an alias so callers don't import go-redis directly for the type.
type Client = redis.Client

// NewRedisClient creates a redis client from config.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping verifies the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Close closes the redis connection.
func Close(client *redis.Client) error {
	return client.Close()
}
