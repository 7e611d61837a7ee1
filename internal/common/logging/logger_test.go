package logging

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level LogLevel) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := NewZapLogger(LogConfig{Level: level, Output: &buf})
	require.NoError(t, err)
	return logger, &buf
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel(" ERROR "))
	assert.Equal(t, InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
}

func TestLogger_LogLevels(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	tests := []struct {
		name     string
		logFunc  func()
		contains []string
	}{
		{
			name:     "debug log",
			logFunc:  func() { logger.Debug("debug message", Field{"key", "value"}) },
			contains: []string{"DEBUG", "debug message", "value"},
		},
		{
			name:     "info log",
			logFunc:  func() { logger.Info("info message", Field{"count", 42}) },
			contains: []string{"INFO", "info message", "42"},
		},
		{
			name:     "warn log",
			logFunc:  func() { logger.Warn("warning message", Field{"flag", true}) },
			contains: []string{"WARN", "warning message", "true"},
		},
		{
			name: "error log",
			logFunc: func() {
				logger.Error("error message", errors.New("kv unavailable"), Field{"op", "put"})
			},
			contains: []string{"ERROR", "error message", "kv unavailable", "put"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			output := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
		})
	}
}

func TestLogger_LogFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", errors.New("boom"))

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestLogger_WithFields(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	enriched := logger.WithFields(
		Field{"component", "hybrid-limiter"},
		Field{"window", 5 * time.Second},
	)
	enriched.Info("record evaluated", Field{"remaining", 2})

	output := buf.String()
	assert.Contains(t, output, "hybrid-limiter")
	assert.Contains(t, output, "5000")
	assert.Contains(t, output, "record evaluated")
	assert.Same(t, logger, logger.WithFields())
}

func TestLogger_WithContext(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithIdentity(ctx, "user:42")

	logger.WithContext(ctx).Info("context message")

	output := buf.String()
	assert.Contains(t, output, "req-123")
	assert.Contains(t, output, "user:42")
}

func TestLogger_WithContext_MissingValues(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	logger.WithContext(context.Background()).Info("context message")

	assert.Contains(t, buf.String(), "context message")
	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestLogger_JSONEncoding(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewZapLogger(LogConfig{Level: InfoLevel, Output: &buf, JSON: true})
	require.NoError(t, err)

	logger.Info("json line",
		String("source", "kv"),
		Int("remaining", 2),
		Int64("window_ms", 60000),
		Any("flags", []string{"burst"}),
		Err(errors.New("connection refused")),
	)

	out := buf.String()
	assert.Contains(t, out, `"msg":"json line"`)
	assert.Contains(t, out, `"source":"kv"`)
	assert.Contains(t, out, `"remaining":2`)
	assert.Contains(t, out, `"window_ms":60000`)
	assert.Contains(t, out, `"flags":["burst"]`)
	assert.Contains(t, out, `"error":"connection refused"`)
}

func TestLogger_Concurrency(t *testing.T) {
	logger, buf := newBufferLogger(t, InfoLevel)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("concurrent", Int("n", n))
		}(i)
	}
	wg.Wait()

	assert.Contains(t, buf.String(), "concurrent")
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	logger, buf := newBufferLogger(t, InfoLevel)
	SetGlobalLogger(logger)

	Component("registry").Info("global message")

	assert.Contains(t, buf.String(), "global message")
	assert.Contains(t, buf.String(), "registry")
}

func TestNopLogger(t *testing.T) {
	var logger Logger = NopLogger{}
	logger.Info("ignored")
	logger.Error("ignored", errors.New("x"))
	assert.Equal(t, logger, logger.WithFields(Field{"a", 1}))
}
