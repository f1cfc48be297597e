// 包 utils：Postgres、Redis 与 TLS 证书的打开工具
package utils

import (
	"ca-probe/internal/config"
	"ca-probe/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：按配置打开 Redis 客户端
// 约束：REDIS_ENABLED=false 时返回 nil，调用方据此关闭二级缓存与去重
func OpenRedis(c config.Config) *redis.Client {
	if !c.RedisEnabled {
		return nil
	}
	logger.L().Debug("redis_env", "addr", c.Redis.Addr(), "db", c.Redis.DB)
	return redis.NewClient(&redis.Options{Addr: c.Redis.Addr(), Password: c.Redis.Password, DB: c.Redis.DB})
}
