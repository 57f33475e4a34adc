// Package redis_client opens go-redis clients from configuration.
package redis_client

import (
	"context"
	"fmt"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	apperrors "github.com/leeforge/mediakit/errors"
	"github.com/leeforge/mediakit/logging"
)

// NewRedis 创建客户端并 Ping，Ping 失败时关闭客户端
func NewRedis(ctx context.Context, cnf Config, logger logging.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cnf.Addr(),
		Password: cnf.Password,
		DB:       cnf.DB,
	})
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeStorage, "connect redis").
			WithDetail("addr", cnf.Addr())
	}
	if logger != nil {
		logger.Info("redis connected", zap.String("reply", pong), zap.String("config", redisConfigLogFields(cnf)))
	}
	return client, nil
}

func redisConfigLogFields(cnf Config) string {
	return fmt.Sprintf("addr=%s db=%d password=%s", cnf.Addr(), cnf.DB, redactedPassword(cnf.Password))
}

func redactedPassword(password string) string {
	if password == "" {
		return "<empty>"
	}
	return "[REDACTED]"
}
