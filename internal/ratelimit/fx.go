package ratelimit

import (
	"github.com/redis/go-redis/v9"
	"github.com/swiftdrop/dispatch/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the optional redis client and token bucket.
var Module = fx.Module("ratelimit",
	fx.Provide(NewClient),
	fx.Provide(NewTokenBucket),
)

// NewClient returns a redis client, or nil when no REDIS_ADDR is configured.
func NewClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Named("ratelimit").Info("redis not configured, rate limiting disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
