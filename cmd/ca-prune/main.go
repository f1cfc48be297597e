package main

import (
	"context"
	"os"
	"time"

	"ca-probe/internal/config"
	"ca-probe/internal/logger"
	"ca-probe/internal/retention"
	"ca-probe/internal/store"
	"ca-probe/internal/utils"
)

// 文档注释：一次性清理历史判定
// 背景：与服务内的每日清理使用相同的保留天数（HISTORY_RETENTION_DAYS），用于手工或外部定时任务触发。
// 约束：仅删除 _ca_runs（结果表级联）与过期的 _ca_stats_daily；不建表，库不可用时直接失败。
func main() {
	cfg := config.Load()
	l := logger.Setup()
	db, err := utils.OpenPostgres(cfg.Postgres)
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	n, err := retention.RunOnce(ctx, store.AttachDB(db), cfg.RetentionDays, time.Now())
	if err != nil {
		l.Error("prune_error", "err", err)
		os.Exit(1)
	}
	l.Info("prune_done", "days", cfg.RetentionDays, "rows", n)
}
