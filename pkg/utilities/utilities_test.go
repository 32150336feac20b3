package utilities

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, levelFromString(in), "level %q", in)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("dev defaults to debug", func(t *testing.T) {
		t.Setenv("LOG_DEV", "true")
		t.Setenv("LOG_LEVEL", "")
		assert.Equal(t, "debug", ConfigFromEnv().Level)
	})
	t.Run("prod defaults to info", func(t *testing.T) {
		t.Setenv("LOG_DEV", "false")
		t.Setenv("LOG_LEVEL", "")
		assert.Equal(t, "info", ConfigFromEnv().Level)
	})
	t.Run("explicit level wins", func(t *testing.T) {
		t.Setenv("LOG_DEV", "true")
		t.Setenv("LOG_LEVEL", "warn")
		assert.Equal(t, "warn", ConfigFromEnv().Level)
	})
}

func TestInit_Levels(t *testing.T) {
	lg, err := Init(Config{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, lg.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, lg.Core().Enabled(zapcore.WarnLevel))

	dev, err := Init(Config{Level: "debug", Dev: true})
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

func TestInit_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	lg, err := Init(Config{Level: "info", File: filepath.Join(dir, "admin.log")})
	require.NoError(t, err)

	lg.Info("hello file")
	_ = lg.Sync()

	matches, err := filepath.Glob(filepath.Join(dir, "admin.log.[0-9][0-9][0-9][0-9][0-9][0-9][0-9][0-9]"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")

	// rotatelogs purges old files in the background behind a _lock file
	require.Eventually(t, func() bool {
		locks, _ := filepath.Glob(filepath.Join(dir, "*_lock"))
		return len(locks) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	assert.NotEqual(t, a, b)
	_, err := ksuid.Parse(a)
	assert.NoError(t, err)
}

func TestNewRunID(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "7")
	id := NewRunID()
	_, err := strconv.ParseInt(id, 10, 64)
	assert.NoError(t, err, "snowflake ids are numeric")

	// node 5000 is outside the 10-bit range, so a KSUID is returned instead
	fallback := NewRunIDWithNode(5000)
	_, err = ksuid.Parse(fallback)
	assert.NoError(t, err)
}
