package nativeclipboard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.OpenRetries)
	assert.Equal(t, 10*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipboard.yaml")
	data := []byte("open_retries: 3\npoll_interval: 250ms\nread_timeout: 500ms\nlog_level: debug\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.OpenRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 10*time.Millisecond, cfg.RetryDelay, "unset fields keep defaults")
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("open_retries: [nope"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigureAppliesDefaults(t *testing.T) {
	prev := CurrentConfig()
	defer Configure(prev)

	Configure(Config{OpenRetries: -1, PollInterval: 0, RetryDelay: 5 * time.Millisecond})
	cfg := CurrentConfig()
	assert.Equal(t, 10, cfg.OpenRetries)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 5*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}
