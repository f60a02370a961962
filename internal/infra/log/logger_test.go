package logs

import (
	"context"
	"log/slog"
	"testing"

	"portal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggerTestConfig(level string, debug bool) *config.Config {
	cfg := &config.Config{}
	cfg.Env.ServiceName = "portal"
	cfg.Env.Debug = debug
	cfg.Env.Log = config.Log{Level: level}

	return cfg
}

func TestNew_RespectsConfiguredLevel(t *testing.T) {
	logger, err := New(Params{Config: newLoggerTestConfig("warn", false)})

	require.NoError(t, err)
	ctx := context.Background()
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn))
}

func TestNew_DebugOverridesLevel(t *testing.T) {
	logger, err := New(Params{Config: newLoggerTestConfig("error", true)})

	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Params{Config: newLoggerTestConfig("loud", false)})

	assert.Error(t, err)
}
