// Package logger_test contains tests for the logger package
package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/json-bucket/internal/config"
	"github.com/phrazzld/json-bucket/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input  string
		level  slog.Level
		wantOK bool
	}{
		{input: "debug", level: slog.LevelDebug, wantOK: true},
		{input: "INFO", level: slog.LevelInfo, wantOK: true},
		{input: " warn ", level: slog.LevelWarn, wantOK: true},
		{input: "error", level: slog.LevelError, wantOK: true},
		{input: "verbose", level: slog.LevelInfo, wantOK: false},
		{input: "", level: slog.LevelInfo, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, ok := logger.ParseLevel(tt.input)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNew_WritesJSONAtLevel(t *testing.T) {
	buf := &logger.TestLogBuffer{}
	l := logger.New(buf, "warn")

	l.Info("dropped")
	l.Warn("kept", slog.String("key", "value"))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "value", entries[0]["key"])
	assert.Equal(t, "json-bucket", entries[0]["service"])
}

func TestSetup_SetsDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	l, err := logger.Setup(config.ServerConfig{LogLevel: "debug"})
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Same(t, l, slog.Default())
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))
}

func TestContextLogger(t *testing.T) {
	buf, base := logger.NewTestLogger(t)
	fallback := slog.New(slog.NewTextHandler(&logger.TestLogBuffer{}, nil))

	t.Run("empty context uses fallback", func(t *testing.T) {
		assert.Nil(t, logger.FromContext(context.Background()))
		assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
		assert.Same(t, slog.Default(), logger.FromContextOrDefault(context.Background(), nil))
	})

	t.Run("stored logger wins", func(t *testing.T) {
		scoped := base.With(slog.String("trace_id", "abc"))
		ctx := logger.WithLogger(context.Background(), scoped)

		logger.FromContextOrDefault(ctx, fallback).Info("request handled")

		logger.AssertLogContains(t, buf, "request handled")
		logger.AssertLogField(t, buf, "trace_id", "abc")
	})
}
