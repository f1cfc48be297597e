package migrate

import (
	"context"
	"database/sql"

	"ca-probe/internal/logger"
)

// Statements：建表语句，按顺序执行
// 约束：全部使用 IF NOT EXISTS，可重复执行。
var Statements = []string{
	`CREATE TABLE IF NOT EXISTS _ca_runs (
        id UUID PRIMARY KEY,
        device_id TEXT NOT NULL DEFAULT '',
        fingerprint TEXT NOT NULL,
        network_type INT NOT NULL,
        country TEXT NOT NULL DEFAULT '',
        operator TEXT NOT NULL DEFAULT '',
        report TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_ca_runs_device_created ON _ca_runs(device_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_ca_runs_created ON _ca_runs(created_at)`,
	`CREATE TABLE IF NOT EXISTS _ca_results (
        run_id UUID NOT NULL REFERENCES _ca_runs(id) ON DELETE CASCADE,
        technology TEXT NOT NULL,
        verdict TEXT NOT NULL,
        serving_id INT,
        serving_channel INT,
        sibling_id INT,
        sibling_channel INT,
        PRIMARY KEY (run_id, technology)
    )`,
	`CREATE TABLE IF NOT EXISTS _ca_stats_daily (
        day DATE NOT NULL,
        technology TEXT NOT NULL,
        verdict TEXT NOT NULL,
        runs BIGINT NOT NULL DEFAULT 0,
        PRIMARY KEY (day, technology, verdict)
    )`,
}

// EnsureSchema：首次运行自动建表与索引
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range Statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
