package utils

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ca-probe/internal/config"
)

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "certs", "server.key")
	require.NoError(t, EnsureSelfSignedCert(cert, key, "ca-probe.local"))

	_, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)

	st, err := os.Stat(key)
	require.NoError(t, err)
	before := st.ModTime()
	require.NoError(t, EnsureSelfSignedCert(cert, key, "ca-probe.local"))
	st, _ = os.Stat(key)
	assert.Equal(t, before, st.ModTime())
}

func TestOpenRedisDisabled(t *testing.T) {
	assert.Nil(t, OpenRedis(config.Config{RedisEnabled: false}))
	rc := OpenRedis(config.Config{RedisEnabled: true, Redis: config.Redis{Host: "127.0.0.1", Port: "6390"}})
	require.NotNil(t, rc)
	assert.Equal(t, "127.0.0.1:6390", rc.Options().Addr)
	_ = rc.Close()
}

func TestOpenPostgresIsLazy(t *testing.T) {
	db, err := OpenPostgres(config.Postgres{Host: "127.0.0.1", Port: "1", User: "u", DB: "d", SSLMode: "disable"})
	require.NoError(t, err)
	assert.Equal(t, 20, db.Stats().MaxOpenConnections)
	_ = db.Close()
}
