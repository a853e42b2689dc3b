package bootstrap

import (
	"context"

	"garage-booking/internal/handler/middleware"
	"garage-booking/internal/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RedisModule = fx.Module("redis",
	fx.Provide(
		NewRedisClient,
		NewRateLimiter,
	),
)

// NewRedisClient returns nil when REDIS_ADDR is unset; downstream
// consumers treat a nil client as "feature disabled".
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client
}

func NewRateLimiter(cfg config.Config, client *redis.Client) *middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return middleware.NewRateLimiter(client, cfg.Redis.RateLimit, cfg.Redis.RateWindow, "rl")
}
