package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestDefaultLoggerIsUsable(t *testing.T) {
	// Logging before Initialize must not panic.
	assert.NotPanics(t, func() {
		Log.Info("before init")
		ErrorWithFields("nil error", nil)
	})
}

func TestInitializeWritesFile(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev; Sugar = prev.Sugar() })

	file := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, Initialize("debug", file))
	Log.Debug("hello", WithUserID("u1"))
	_ = Close() // syncing stdout fails on some platforms
	assert.FileExists(t, file)
}
