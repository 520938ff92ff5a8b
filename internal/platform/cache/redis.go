package cache

import (
	"context"
	"fmt"
	"time"

	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

func ConnectRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
		PoolSize: 100,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("connecting to redis at %s: %w", config.AppConfig.RedisAddr, err)
	}

	RDB = client
	logger.Info().Str("addr", config.AppConfig.RedisAddr).Msg("connected to Redis")
	return nil
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		logger.Info().Msg("redis connection closed")
	}
}
