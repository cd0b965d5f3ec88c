package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/squareit/account-service/internal/config"
)

// NewRedisClient builds the client backing the notification outbox. A server
// that is down at startup is logged only; Enqueue reports the failure per
// message and the worker keeps polling until it comes back.
func NewRedisClient(cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("notification outbox unreachable", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Debug("notification outbox reachable", zap.String("addr", cfg.Addr))
	}
	return client
}

// Ping reports whether the outbox can accept messages: the server must answer
// and the key must be absent or hold a list.
func (o *Outbox) Ping(ctx context.Context) error {
	kind, err := o.client.Type(ctx, o.key).Result()
	if err != nil {
		return fmt.Errorf("outbox %s: %w", o.key, err)
	}
	if kind != "list" && kind != "none" {
		return fmt.Errorf("outbox %s: key holds a %s", o.key, kind)
	}
	return nil
}
