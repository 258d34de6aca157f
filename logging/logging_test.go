package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.level.String())
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelDebug.SlogLevel())
	assert.Equal(t, slog.LevelError, LevelError.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogLevel(999).SlogLevel())
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"debug":   LevelDebug,
		"":        LevelInfo,
		" INFO ":  LevelInfo,
		"warning": LevelWarn,
		"Error":   LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Debug("test-subsystem", "hidden %d", 1)
	Info("test-subsystem", "visible %d", 2)
	Error("test-subsystem", errors.New("boom"), "failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "visible 2")
	assert.Contains(t, out, "subsystem=test-subsystem")
	assert.Contains(t, out, "error=boom")
}
