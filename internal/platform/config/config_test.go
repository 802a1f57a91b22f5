package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.InMemory())
	assert.Equal(t, 5*time.Second, cfg.Database.TxTimeout)
	assert.Equal(t, "compliance-events", cfg.Kafka.Topic)
	assert.Equal(t, "marketplace", cfg.Compliance.Realm)
	assert.Equal(t, "@every 30s", cfg.Relay.Sweep)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)
	yaml := `
log:
  level: debug
  format: text
database:
  url: postgres://localhost:5432/contractpay
compliance:
  legal_entity: Contractpay Arizona LLC
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.InMemory())
	assert.Equal(t, "Contractpay Arizona LLC", cfg.Compliance.LegalEntity)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONTRACTPAY_SERVER_ADDR", ":9090")
	t.Setenv("CONTRACTPAY_COMPLIANCE_REALM", "enterprise")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "enterprise", cfg.Compliance.Realm)
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONTRACTPAY_LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoadRejectsEmptyRateBudget(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONTRACTPAY_RATE_LIMIT_WRITE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate_limit")
}
