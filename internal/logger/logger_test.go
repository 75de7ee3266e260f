package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("console output honours the level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "warn", Console: true, Out: &buf})
		require.NoError(t, err)
		defer logger.Close()

		logger.Info().Msg("hidden")
		logger.Warn().Msg("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "test.log")

		logger, err := New(Config{Level: "debug", File: logFile, MaxSize: 1})
		require.NoError(t, err)
		logger.Info().Msg("test message")
		require.NoError(t, logger.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
	})

	t.Run("redaction applies to every writer", func(t *testing.T) {
		var buf bytes.Buffer
		logFile := filepath.Join(t.TempDir(), "test.log")

		logger, err := New(Config{Level: "info", Console: true, Out: &buf, File: logFile, MaxSize: 1, Redaction: true})
		require.NoError(t, err)
		assert.NotNil(t, logger.redactor)

		logger.Info().Str("key", "gsk_abcdefghijklmnopqrstuvwxyz012345").Msg("calling provider")
		require.NoError(t, logger.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		for _, out := range []string{buf.String(), string(content)} {
			assert.Contains(t, out, "[REDACTED]")
			assert.NotContains(t, out, "gsk_abcdef")
		}
	})

	t.Run("invalid level falls back to warn", func(t *testing.T) {
		logger, err := New(Config{Level: "loud"})
		require.NoError(t, err)
		assert.Equal(t, zerolog.WarnLevel, logger.GetZerolog().GetLevel())
	})
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", Console: true, Out: &buf})
	require.NoError(t, err)
	defer logger.Close()

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")
	logger.Error().Msg("error message")

	for _, msg := range []string{"debug message", "info message", "warn message", "error message"} {
		assert.Contains(t, buf.String(), msg)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "warn", cfg.Level)
	assert.True(t, cfg.Console)
	assert.True(t, cfg.Pretty)
	assert.True(t, cfg.Redaction)
	assert.Equal(t, 10, cfg.MaxSize)
	assert.Equal(t, 7, cfg.MaxAge)
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Console: true, Out: &buf})
	require.NoError(t, err)
	defer logger.Close()

	logger.Component("engine").Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"engine"`)
}

func TestGetZerolog(t *testing.T) {
	logger, err := New(Config{Level: "info"})
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, zerolog.InfoLevel, logger.GetZerolog().GetLevel())
}
