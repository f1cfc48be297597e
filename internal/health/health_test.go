package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type flaky struct {
	name string
	fail atomic.Bool
	hits atomic.Int32
}

func (f *flaky) Name() string { return f.name }
func (f *flaky) Check(ctx context.Context) error {
	f.hits.Add(1)
	if f.fail.Load() {
		return errors.New("down")
	}
	return nil
}

func TestRegisterStartsHealthy(t *testing.T) {
	m := NewMonitor(time.Second)
	assert.True(t, m.Healthy())
	m.Register(&flaky{name: "db"})
	st := m.Snapshot()
	require.Contains(t, st, "db")
	assert.True(t, st["db"].Healthy)
	assert.Equal(t, []string{"db"}, m.Names())
}

func TestRunOnceUpdatesStatus(t *testing.T) {
	m := NewMonitor(time.Second)
	ok := &flaky{name: "redis"}
	bad := &flaky{name: "postgres"}
	bad.fail.Store(true)
	m.Register(ok)
	m.Register(bad)

	m.RunOnce(context.Background())
	st := m.Snapshot()
	assert.True(t, st["redis"].Healthy)
	assert.False(t, st["postgres"].Healthy)
	assert.Equal(t, "down", st["postgres"].Err)
	assert.False(t, m.Healthy())

	bad.fail.Store(false)
	m.RunOnce(context.Background())
	assert.True(t, m.Healthy())
	assert.Empty(t, m.Snapshot()["postgres"].Err)
}

func TestSnapshotIsCopy(t *testing.T) {
	m := NewMonitor(time.Second)
	m.Register(&flaky{name: "db"})
	st := m.Snapshot()
	st["db"] = Status{Healthy: false}
	assert.True(t, m.Snapshot()["db"].Healthy)
}

func TestStartStopsOnCancel(t *testing.T) {
	m := NewMonitor(10 * time.Millisecond)
	c := &flaky{name: "db"}
	m.Register(c)
	ctx, cancel := context.WithCancel(context.Background())
	done := m.Start(ctx)
	require.Eventually(t, func() bool { return c.hits.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestFuncChecker(t *testing.T) {
	c := Func{N: "x", F: func(context.Context) error { return nil }}
	assert.Equal(t, "x", c.Name())
	assert.NoError(t, c.Check(context.Background()))
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestPostgresChecker(t *testing.T) {
	c := Postgres(pinger{err: errors.New("refused")})
	assert.Equal(t, "postgres", c.Name())
	assert.EqualError(t, c.Check(context.Background()), "refused")
}
