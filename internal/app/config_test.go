package app

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "bcrypt", cfg.PasswordScheme)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, "0 * * * *", cfg.SessionPurgeCron)
	assert.Equal(t, "Attendance", cfg.AppName)
	assert.Equal(t, int32(10), cfg.PGMaxConns)
	assert.Equal(t, 5*time.Minute, cfg.PGMaxConnIdleTime)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("STORE_DRIVER", "mysql")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "unsupported store driver")
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{AppEnv: "test", LogFormat: "json"})
	logger.Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "attendance", entry["service"])
	assert.Equal(t, "test", entry["env"])

	buf.Reset()
	newLogger(&buf, &Config{AppEnv: "test"}).Info("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}

func TestConfigRedisSettings(t *testing.T) {
	cfg := &Config{RedisAddr: "redis:6379", RedisPassword: "pw", RedisDB: 2}

	opts := cfg.RedisOptions()
	assert.Equal(t, "redis:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	queue := cfg.QueueRedis()
	assert.Equal(t, "redis:6379", queue.Addr)
	assert.Equal(t, "pw", queue.Password)
	assert.Equal(t, 2, queue.DB)
}
