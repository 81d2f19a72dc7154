package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/errors"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/logger"
)

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 Redis 的分布式锁，适用于多实例部署
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

// RedisOption RedisLocker 配置项
type RedisOption func(*RedisLocker)

// WithPrefix 设置键前缀
func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) { l.prefix = prefix }
}

// WithRetryInterval 设置重试间隔
func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) { l.retry = d }
}

// NewRedisLocker 创建分布式锁
// ttl 保证持有者崩溃后锁最终释放，应大于单次事务的最长耗时
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client: client,
		prefix: "lock:room:",
		ttl:    ttl,
		wait:   wait,
		retry:  20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock 获取 key 对应的锁
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.ErrLockTimeout.WithError(ctx.Err())
			}
			return nil, errors.ErrCacheError.WithError(err)
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, errors.ErrLockTimeout.WithError(ctx.Err())
		}
	}
}

// unlocker 返回释放函数，释放与请求的 ctx 无关
func (l *RedisLocker) unlocker(redisKey, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			logger.Warn("释放房间锁失败", logger.String("key", redisKey), logger.Err(err))
		}
	}
}
