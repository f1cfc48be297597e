package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ca-probe/internal/logger"
)

// 文档注释：令牌桶限流（每秒）
// 背景：在提交峰值时对入口限速，避免缓存与历史库被过载。
// 约束：简化实现，不做排队，仅丢弃并返回 429；每个自然秒重置令牌。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
	now      func() time.Time
}

func NewTokenBucket(qps int) *TokenBucket {
	if qps <= 0 {
		qps = 1
	}
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimit：按 qps 限流的中间件
func RateLimit(qps int) func(http.Handler) http.Handler {
	tb := NewTokenBucket(qps)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tb.Allow() {
				logger.L().Debug("rate_limited", "path", r.URL.Path, "ip", r.RemoteAddr)
				w.Header().Set("content-type", "application/json; charset=utf-8")
				w.Header().Set("retry-after", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limited"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Wrap：按开关包装限流；未启用时原样返回
func Wrap(h http.Handler, enabled bool, qps int) http.Handler {
	if !enabled {
		return h
	}
	logger.L().Info("rate_limit_enabled", "qps", qps)
	return RateLimit(qps)(h)
}

// Stack：组装入口中间件，访问日志在最外层
// 约束：被限流的 429 同样写入访问日志。
func Stack(h http.Handler, l *slog.Logger, rateLimit bool, qps int) http.Handler {
	return logger.AccessMiddleware(l)(Wrap(h, rateLimit, qps))
}
