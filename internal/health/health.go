// 包 health：依赖健康监测（数据库、Redis），周期检查并提供状态快照
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"ca-probe/internal/logger"
	"ca-probe/internal/metrics"

	"golang.org/x/sync/errgroup"
)

// 文档注释：检查项接口
// 约束：Check 需遵守 ctx 超时；返回 nil 表示健康。
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Status：单个检查项的最近状态
type Status struct {
	Healthy bool      `json:"healthy"`
	Last    time.Time `json:"last"`
	Err     string    `json:"error,omitempty"`
}

// 文档注释：监测器
// 背景：注册检查项后由后台协程周期执行；状态读写线程安全。
// 约束：默认周期 10s，单轮超时为周期的一半；注册即视为健康，直到首次检查失败。
type Monitor struct {
	mu       sync.RWMutex
	cs       map[string]Checker
	st       map[string]Status
	interval time.Duration
	now      func() time.Time
}

func NewMonitor(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{cs: make(map[string]Checker), st: make(map[string]Status), interval: interval, now: time.Now}
}

// Register：同名检查项后注册者覆盖前者
func (m *Monitor) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cs[c.Name()] = c
	m.st[c.Name()] = Status{Healthy: true, Last: m.now()}
	logger.L().Info("health_check_registered", "name", c.Name())
}

// Start：立即执行一轮检查，之后按周期执行，ctx 取消时退出
// 返回：后台协程退出后关闭的通道
func (m *Monitor) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(m.interval)
		defer t.Stop()
		m.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.RunOnce(ctx)
			}
		}
	}()
	return done
}

// RunOnce：并发执行全部检查项并更新状态
func (m *Monitor) RunOnce(ctx context.Context) {
	m.mu.RLock()
	cs := make([]Checker, 0, len(m.cs))
	for _, c := range m.cs {
		cs = append(cs, c)
	}
	m.mu.RUnlock()

	cctx, cancel := context.WithTimeout(ctx, m.interval/2)
	defer cancel()
	results := make([]error, len(cs))
	var g errgroup.Group
	for i, c := range cs {
		i, c := i, c
		g.Go(func() error {
			// 单项失败不影响其他检查项，错误记录在 results
			results[i] = c.Check(cctx)
			return nil
		})
	}
	_ = g.Wait()

	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range cs {
		if _, ok := m.cs[c.Name()]; !ok {
			continue
		}
		if err := results[i]; err != nil {
			m.st[c.Name()] = Status{Healthy: false, Last: now, Err: err.Error()}
			logger.L().Warn("health_check_fail", "name", c.Name(), "err", err)
			metrics.HealthChecksTotal.WithLabelValues(c.Name(), "fail").Inc()
			continue
		}
		m.st[c.Name()] = Status{Healthy: true, Last: now}
		logger.L().Debug("health_check_ok", "name", c.Name())
		metrics.HealthChecksTotal.WithLabelValues(c.Name(), "ok").Inc()
	}
}

// Snapshot：返回状态副本
func (m *Monitor) Snapshot() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Status, len(m.st))
	for k, v := range m.st {
		out[k] = v
	}
	return out
}

// Healthy：全部检查项健康时为 true；无检查项时为 true
func (m *Monitor) Healthy() bool {
	for _, s := range m.Snapshot() {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// Names：已注册检查项名称（排序）
func (m *Monitor) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.cs))
	for k := range m.cs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
