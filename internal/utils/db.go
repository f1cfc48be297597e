package utils

import (
	"database/sql"

	"ca-probe/internal/config"

	_ "github.com/lib/pq"
)

// OpenPostgres：按配置打开连接池（不做连通性检查，由调用方 Ping）
func OpenPostgres(p config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", p.DSN())
	if err != nil {
		return nil, err
	}
	maxOpen, maxIdle := p.MaxOpen, p.MaxIdle
	if maxOpen <= 0 {
		maxOpen = 20
	}
	if maxIdle < 0 {
		maxIdle = 0
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}
