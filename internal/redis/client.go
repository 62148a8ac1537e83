package redis

import (
	"github.com/redis/go-redis/v9"

	"podium/config"
)

// NewClient creates a Redis client from the application config.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
