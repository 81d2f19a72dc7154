package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/cache"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/config"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/logger"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/response"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Client    redis.UniversalClient
	KeyPrefix string
	Limit     int
	Window    time.Duration
	KeyFunc   func(*gin.Context) string // 为空时按客户端 IP 计数
}

// RateLimitFromConfig 由应用配置构造限流配置
func RateLimitFromConfig(client redis.UniversalClient, cfg *config.RateLimitConfig) *RateLimitConfig {
	limit, window := cfg.Limit, time.Duration(cfg.Window)*time.Second
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimitConfig{
		Client:    client,
		KeyPrefix: cache.KeyPrefixRateLimit,
		Limit:     limit,
		Window:    window,
	}
}

// RateLimit 固定窗口限流中间件，Redis 不可用时放行
func RateLimit(cfg *RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := cfg.KeyPrefix + c.ClientIP()
		if cfg.KeyFunc != nil {
			key = cfg.KeyPrefix + cfg.KeyFunc(c)
		}

		ctx := c.Request.Context()
		count, err := cfg.Client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("限流计数失败", logger.Module("ratelimit"), logger.Err(err))
			c.Next()
			return
		}
		if count == 1 {
			cfg.Client.Expire(ctx, key, cfg.Window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		if int(count) > cfg.Limit {
			ttl, _ := cfg.Client.TTL(ctx, key).Result()
			if ttl < 0 {
				ttl = cfg.Window
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.Limit-int(count)))

		c.Next()
	}
}
