package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Pinger：具备 Ping 能力的依赖（如 *store.Store）
type Pinger interface {
	Ping(ctx context.Context) error
}

// Func：将函数包装为检查项
type Func struct {
	N string
	F func(ctx context.Context) error
}

func (f Func) Name() string                    { return f.N }
func (f Func) Check(ctx context.Context) error { return f.F(ctx) }

// Postgres：历史库连通性
func Postgres(p Pinger) Checker {
	return Func{N: "postgres", F: p.Ping}
}

// Redis：缓存与去重使用的 Redis 连通性
func Redis(rc *redis.Client) Checker {
	return Func{N: "redis", F: func(ctx context.Context) error { return rc.Ping(ctx).Err() }}
}
