package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/winkit/nativeclipboard"
)

func TestPersistentPreRunLoadsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll_interval: 2s\nlog_level: error\n"), 0o600))

	prev := nativeclipboard.CurrentConfig()
	t.Cleanup(func() {
		nativeclipboard.Configure(prev)
		nativeclipboard.SetLogger(nil)
		logger = zap.NewNop()
		cfgFile, logLevel = "", ""
	})

	cfgFile, logLevel = path, "debug"
	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))

	cfg := nativeclipboard.CurrentConfig()
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, "debug", cfg.LogLevel, "flag overrides the file")
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestPersistentPreRunMissingConfig(t *testing.T) {
	t.Cleanup(func() { cfgFile = "" })
	cfgFile = filepath.Join(t.TempDir(), "nope.yaml")
	assert.Error(t, rootCmd.PersistentPreRunE(rootCmd, nil))
}
