package reportcache

import (
	"context"
	"time"

	"ca-probe/internal/logger"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "ca:report:"

// Redis：基于 go-redis 的二级缓存
type Redis struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewRedis：rc 为 nil 时返回 nil，便于直接传入 NewTiered
func NewRedis(rc *redis.Client, ttl time.Duration) Cache {
	if rc == nil {
		return nil
	}
	return &Redis{rc: rc, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.rc.Get(ctx, redisPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.L().Debug("report_cache_get_error", "err", err)
		}
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) {
	if err := r.rc.Set(ctx, redisPrefix+key, val, r.ttl).Err(); err != nil {
		logger.L().Debug("report_cache_set_error", "err", err)
	}
}
