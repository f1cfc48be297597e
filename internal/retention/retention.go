// 包 retention：按保留天数每日清理历史判定，运行在服务进程内的后台协程
package retention

import (
	"context"
	"time"

	"ca-probe/internal/logger"
	"ca-probe/internal/metrics"
)

// Pruner：删除 before 之前的历史，返回删除条数
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// NextRunAt：计算 now 之后首个整点 hour 的时间点（使用 now 的时区）
// 约束：当天该整点已过（含恰好等于）时顺延到次日。
func NextRunAt(now time.Time, hour int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !t.After(now) {
		t = time.Date(now.Year(), now.Month(), now.Day()+1, hour, 0, 0, 0, now.Location())
	}
	return t
}

// Cutoff：保留 days 天，早于返回值的记录可删除
func Cutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// RunOnce：执行一次清理并计数
func RunOnce(ctx context.Context, p Pruner, days int, now time.Time) (int64, error) {
	n, err := p.Prune(ctx, Cutoff(now, days))
	if err != nil {
		return n, err
	}
	metrics.PrunedRowsTotal.Add(float64(n))
	return n, nil
}

// Start：每日 hour 点执行清理；错误由日志记录，任务继续调度
// 返回：后台协程退出后关闭的通道
func Start(ctx context.Context, p Pruner, days, hour int) <-chan struct{} {
	l := logger.L()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			next := NextRunAt(time.Now(), hour)
			l.Debug("retention_scheduled", "next", next, "days", days)
			t := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			l.Info("retention_start", "days", days)
			if n, err := RunOnce(ctx, p, days, time.Now()); err != nil {
				l.Error("retention_error", "err", err)
			} else {
				l.Info("retention_done", "rows", n)
			}
		}
	}()
	return done
}
