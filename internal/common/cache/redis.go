// Package cache 管理 Redis 连接
// Redis 用于分布式房间锁和接口限流
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/config"
)

var rdb *redis.Client

// 键前缀
const (
	KeyPrefix          = "hotel:"
	KeyPrefixRoomLock  = KeyPrefix + "lock:room:"
	KeyPrefixRateLimit = KeyPrefix + "ratelimit:ip:"
)

// Init 初始化 Redis 连接
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	rdb = client
	return rdb, nil
}

// GetClient 获取 Redis 客户端，未初始化时返回 nil
func GetClient() *redis.Client {
	return rdb
}

// Ping 检查 Redis 连接，未启用时返回 nil
func Ping(ctx context.Context) error {
	if rdb == nil {
		return nil
	}
	return rdb.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func Close() error {
	if rdb == nil {
		return nil
	}
	err := rdb.Close()
	rdb = nil
	return err
}

// BuildKey 构建缓存键
func BuildKey(prefix string, parts ...string) string {
	return prefix + strings.Join(parts, ":")
}
