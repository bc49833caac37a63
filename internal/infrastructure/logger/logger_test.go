package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/LavaJover/shvark-escrow-service/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("chatty"))
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	l := NewLogger(config.LogConfig{LogLevel: "warn", LogFormat: "json", LogOutput: "stderr"})
	assert.False(t, l.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, l.Enabled(context.Background(), slog.LevelError))
}
