package nativeclipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })
	return logs
}

func TestCheckPixels(t *testing.T) {
	assert.NoError(t, checkPixels(2, 1, make([]byte, 8)))
	assert.NoError(t, checkPixels(2, 1, make([]byte, 12)), "extra bytes are ignored")
	assert.ErrorIs(t, checkPixels(0, 1, nil), ErrInvalidImage)
	assert.ErrorIs(t, checkPixels(1, 0, nil), ErrInvalidImage)
	assert.ErrorIs(t, checkPixels(2, 2, make([]byte, 15)), ErrInvalidImage)
	assert.ErrorIs(t, checkPixels(1<<31, 1<<31, nil), ErrInvalidImage, "size must not wrap")
	assert.ErrorIs(t, checkPixels(1<<17, 1, make([]byte, 4<<17)), ErrInvalidImage)
}

func TestSetImageIgnoresHugeDimensions(t *testing.T) {
	logs := observeLogs(t)

	require.NotPanics(t, func() { SetImage(1<<31, 1<<31, nil) })
	assert.Equal(t, 1, logs.FilterMessage("failed to set the clipboard image").Len())
}

func TestSetImageLogsInvalidBuffer(t *testing.T) {
	logs := observeLogs(t)

	SetImage(4, 4, make([]byte, 10))

	entries := logs.FilterMessage("failed to set the clipboard image").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, uint64(4), fields["width"])
	assert.Equal(t, uint64(4), fields["height"])
	assert.Contains(t, fields["error"], "invalid image")
}

func TestLogFailureLevels(t *testing.T) {
	logs := observeLogs(t)

	logFailure("unavailable", ErrUnavailable)
	logFailure("broken", errors.New("boom"))

	require.Equal(t, 2, logs.Len())
	all := logs.All()
	assert.Equal(t, zapcore.WarnLevel, all[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, all[1].Level)
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "text", Text.String())
	assert.Equal(t, "image", Image.String())
	assert.Equal(t, "unknown", Format(7).String())
}
