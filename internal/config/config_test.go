package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsThenFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refinery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9000"
database_url: "postgres://file"
log:
  level: debug
alerts:
  webhook_url: "http://hooks.local/a"
  dedupe_window: 2m
digest:
  schedule: "0 6 * * *"
`), 0o600))

	for _, key := range []string{"REFINERY_CONFIG", "HTTP_ADDR", "LOG_LEVEL", "LOG_FORMAT", "ALERT_WEBHOOK_URL", "ALERT_DEDUPE_WINDOW", "DIGEST_SCHEDULE", "DIGEST_LOOKBACK"} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("PG_DSN", "")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("ALERT_NOTIFY_TIMEOUT", "750ms")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://hooks.local/a", cfg.Alerts.WebhookURL)
	assert.Equal(t, 2*time.Minute, cfg.Alerts.DedupeWindow)
	assert.Equal(t, 750*time.Millisecond, cfg.Alerts.NotifyTimeout)
	assert.Equal(t, int64(0), cfg.Alerts.TelegramChatID)
	assert.Equal(t, "0 6 * * *", cfg.Digest.Schedule)
	assert.Equal(t, 24*time.Hour, cfg.Digest.Lookback)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MalformedEnv(t *testing.T) {
	t.Setenv("REFINERY_CONFIG", "")
	t.Setenv("ALERT_DEDUPE_WINDOW", "10 minutes")
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
	t.Setenv("DIGEST_LOOKBACK", "-1h")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `ALERT_DEDUPE_WINDOW="10 minutes"`)
	assert.Contains(t, err.Error(), `TELEGRAM_CHAT_ID="not-a-number"`)
	assert.Contains(t, err.Error(), `DIGEST_LOOKBACK="-1h"`)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.DatabaseURL = "postgres://x"
	assert.ErrorContains(t, cfg.Validate(), "AUTH_JWT_SECRET")

	cfg.JWTSecret = "k"
	cfg.Alerts.TelegramToken = "bot"
	assert.ErrorContains(t, cfg.Validate(), "TELEGRAM_CHAT_ID")

	cfg.Alerts.TelegramChatID = 42
	assert.NoError(t, cfg.Validate())
}
