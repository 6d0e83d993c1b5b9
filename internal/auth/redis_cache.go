package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"campus-events/internal/config"
	"campus-events/internal/logger"
)

// InitializeRevocationStore connects to Redis for session revocation. It
// returns nil, nil when no address is configured.
func InitializeRevocationStore(cfg config.RedisConfig, log *logger.Logger) (*RedisRevocations, error) {
	if cfg.Addr == "" {
		log.Info("REDIS", "REDIS_ADDR not set, logout will only clear the cookie")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Addr, cfg.DB))
	return NewRedisRevocations(client), nil
}
