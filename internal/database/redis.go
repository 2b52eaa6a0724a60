package database

import (
	"context"
	"fmt"
	"time"

	"fhirfly-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects to redis. It returns nil, nil when no address is configured,
// in which case callers fall back to in-process stores.
func InitRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}
