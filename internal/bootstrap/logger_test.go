package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm/logger"

	"loginify/internal/config"
)

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(config.LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	l, err = NewLogger(config.LogConfig{Level: "DEBUG", Format: "console"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, gormLogLevel("debug"))
	assert.Equal(t, logger.Warn, gormLogLevel("info"))
	assert.Equal(t, logger.Error, gormLogLevel("error"))
}

func TestClose_EmptyApp(t *testing.T) {
	assert.NoError(t, (&App{}).Close())
}
