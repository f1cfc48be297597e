// 包 store：判定历史的 PostgreSQL 数据访问层，包含写入、统计与保留期清理
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ca-probe/internal/aggregation"
	"ca-probe/internal/logger"

	"github.com/google/uuid"
)

// ErrDisabled：未启用历史库（HISTORY_ENABLED=false 或数据库不可用）
var ErrDisabled = errors.New("history disabled")

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 200
)

// Store：数据库访问入口，持有连接池
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db, now: time.Now} }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Ping：健康检查使用
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Run：一次待写入的判定
type Run struct {
	ID          uuid.UUID
	DeviceID    string
	Fingerprint string
	NetworkType int
	Country     string
	Operator    string
	Doc         aggregation.Document
	CreatedAt   time.Time
}

// NewRun：生成带随机 ID 的记录
// 约束：以对外结构为输入，缓存命中的判定同样可以写入。
func NewRun(deviceID, fingerprint string, doc aggregation.Document) Run {
	return Run{
		ID:          uuid.New(),
		DeviceID:    deviceID,
		Fingerprint: fingerprint,
		NetworkType: doc.NetworkType.Code,
		Doc:         doc,
		CreatedAt:   time.Now().UTC(),
	}
}

// Text：报告正文，每行以换行结尾
func (r Run) Text() string {
	if len(r.Doc.Lines) == 0 {
		return ""
	}
	return strings.Join(r.Doc.Lines, "\n") + "\n"
}

// Record：单事务写入判定、逐制式结果并累加当日统计
func (s *Store) Record(ctx context.Context, r Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO _ca_runs(id, device_id, fingerprint, network_type, country, operator, report, created_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID.String(), r.DeviceID, r.Fingerprint, r.NetworkType, r.Country, r.Operator, r.Text(), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, res := range r.Doc.Results {
		sid, sch := cellCols(res.Serving)
		bid, bch := cellCols(res.Sibling)
		_, err = tx.ExecContext(ctx, `INSERT INTO _ca_results(run_id, technology, verdict, serving_id, serving_channel, sibling_id, sibling_channel)
            VALUES($1,$2,$3,$4,$5,$6,$7)`,
			r.ID.String(), res.Technology, string(res.Verdict), sid, sch, bid, bch)
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO _ca_stats_daily(day, technology, verdict, runs) VALUES($1::date, $2, $3, 1)
            ON CONFLICT (day, technology, verdict) DO UPDATE SET runs=_ca_stats_daily.runs+1`,
			dayOf(r.CreatedAt), res.Technology, string(res.Verdict))
		if err != nil {
			return fmt.Errorf("bump stats: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.L().Debug("history_recorded", "id", r.ID.String(), "device", r.DeviceID, "results", len(r.Doc.Results))
	return nil
}

func cellCols(c *aggregation.CellDoc) (sql.NullInt64, sql.NullInt64) {
	if c == nil {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(c.ID), Valid: true}, sql.NullInt64{Int64: int64(c.Channel), Valid: true}
}

func dayOf(t time.Time) string { return t.UTC().Format("2006-01-02") }

// startOfDay：t 所在 UTC 日的零点，与 _ca_stats_daily.day 的分桶一致
func startOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// VerdictCount：某制式某结论的次数
type VerdictCount struct {
	Technology string `json:"technology"`
	Verdict    string `json:"verdict"`
	Runs       int64  `json:"runs"`
}

// Totals：累计与当日统计
type Totals struct {
	Runs      int64          `json:"runs"`
	Today     int64          `json:"today"`
	ByVerdict []VerdictCount `json:"by_verdict"`
}

// GetTotals：读取累计判定数、当日判定数与按结论分布
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	t := &Totals{ByVerdict: []VerdictCount{}}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM _ca_runs").Scan(&t.Runs); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM _ca_runs WHERE created_at >= $1", startOfDay(s.now())).Scan(&t.Today); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT technology, verdict, SUM(runs) FROM _ca_stats_daily
        GROUP BY technology, verdict ORDER BY technology, verdict`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v VerdictCount
		if err := rows.Scan(&v.Technology, &v.Verdict, &v.Runs); err != nil {
			return nil, err
		}
		t.ByVerdict = append(t.ByVerdict, v)
	}
	logger.L().Debug("stats_totals", "runs", t.Runs, "today", t.Today)
	return t, rows.Err()
}

// Entry：历史查询返回项
type Entry struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	NetworkType int       `json:"network_type"`
	Country     string    `json:"country,omitempty"`
	Operator    string    `json:"operator,omitempty"`
	Report      string    `json:"report"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClampLimit：历史条数默认 20，上限 200
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultHistoryLimit
	}
	if n > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return n
}

// History：按设备查询最近判定；device 为空时返回全部设备
func (s *Store) History(ctx context.Context, device string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, device_id, network_type, country, operator, report, created_at
        FROM _ca_runs WHERE ($1 = '' OR device_id = $1)
        ORDER BY created_at DESC LIMIT $2`, device, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.NetworkType, &e.Country, &e.Operator, &e.Report, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune：删除 before 之前的判定（结果表级联删除），返回删除条数
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM _ca_runs WHERE created_at < $1", before)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if _, err := s.db.ExecContext(ctx, "DELETE FROM _ca_stats_daily WHERE day < $1::date", dayOf(before)); err != nil {
		return n, err
	}
	logger.L().Info("history_pruned", "before", before, "rows", n)
	return n, nil
}
