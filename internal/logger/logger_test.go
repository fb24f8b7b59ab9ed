package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.Info("test message", "job", "job-123")

	assert.Contains(t, buf.String(), `"msg":"test message"`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
	assert.Contains(t, buf.String(), `"job":"job-123"`)
}

func TestNewFormatAutoDetection(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"development", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("env="+tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			log.Info("probe")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"probe"`)
			} else {
				assert.Contains(t, buf.String(), "probe")
				assert.Contains(t, buf.String(), ansiBold)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestConsoleHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.Info("chapter detected", "label", "Chapter 01", "start", "00:10:00.000")

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "chapter detected")
	assert.Contains(t, out, "label=Chapter 01")
	assert.Contains(t, out, "start=00:10:00.000")
}

func TestConsoleHandlerLevels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			log.Log(context.Background(), tt.level, "probe")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestConsoleHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	log := slog.New(h.WithAttrs([]slog.Attr{slog.String("service", "chapterd")}))
	log.Info("ready")

	assert.Contains(t, buf.String(), "service=chapterd")
}

func TestConsoleHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	require.Equal(t, slog.Handler(h), h.WithGroup(""))

	log := slog.New(h.WithGroup("job"))
	log.Info("queued", "id", "job-42")

	assert.Contains(t, buf.String(), "job.id=job-42")
}

func TestConsoleHandlerAddSource(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo, AddSource: true}))

	log.Info("probe")

	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.WithError(errors.New("boom")).Error("operation failed")

	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), "operation failed")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelWarn, Format: "json", Writer: &buf})

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}
