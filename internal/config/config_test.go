package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":2112", cfg.Server.MetricsAddress)
	assert.Equal(t, 1000, cfg.Window.Capacity)
	assert.Equal(t, "high", cfg.Pipeline.RemediationFloor)
	assert.Equal(t, 5*time.Minute, cfg.Remediation.DedupeTTL)
	assert.False(t, cfg.Store.ValkeyEnabled)
	assert.False(t, cfg.Bus.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  metricsAddress: ":9100"
window:
  capacity: 250
pipeline:
  remediationFloor: "critical"
bus:
  enabled: true
  url: "nats://broker:4222"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.MetricsAddress)
	assert.Equal(t, 250, cfg.Window.Capacity)
	assert.Equal(t, "critical", cfg.Pipeline.RemediationFloor)
	assert.True(t, cfg.Bus.Enabled)
	assert.Equal(t, "nats://broker:4222", cfg.Bus.URL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AIOPS_LOG_LEVEL", "debug")
	t.Setenv("AIOPS_LOG_FORMAT", "json")
	t.Setenv("AIOPS_WINDOW_CAPACITY", "42")
	t.Setenv("AIOPS_STORE_VALKEY_ENABLED", "true")
	t.Setenv("AIOPS_STORE_ADDR", "valkey:6379")
	t.Setenv("AIOPS_REMEDIATION_DEDUPE_TTL", "90s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, 42, cfg.Window.Capacity)
	assert.True(t, cfg.Store.ValkeyEnabled)
	assert.Equal(t, "valkey:6379", cfg.Store.Addr)
	assert.Equal(t, 90*time.Second, cfg.Remediation.DedupeTTL)
}
