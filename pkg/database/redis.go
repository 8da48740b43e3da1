package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"unimind_backend/internal/config"
	"unimind_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	defaultRedisPoolSize = 20
	redisPingTimeout     = 3 * time.Second
)

// RedisOptions 把配置转换为客户端参数，未设置的连接池大小取默认值
func RedisOptions(cfg *config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultRedisPoolSize
	}
	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: poolSize / 4,
	}
}

// InitRedis 连接 Redis（跨实例按键加锁），启动时按 ConnectRetries 重试 ping
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(RedisOptions(cfg))
	if err := pingWithRetry(context.Background(), rdb, cfg.ConnectRetries, time.Second); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	logger.Log.Info("Redis connection established",
		zap.String("addr", rdb.Options().Addr),
		zap.Int("db", cfg.DB),
		zap.Int("poolSize", rdb.Options().PoolSize))
	return rdb, nil
}

type pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

func pingWithRetry(ctx context.Context, p pinger, retries int, backoff time.Duration) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			logger.Log.Warn("Redis ping failed, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err = p.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("redis ping: %w", err)
}
