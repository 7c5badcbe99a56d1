package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	// Setup: log path in a directory that does not exist yet.
	path := filepath.Join(t.TempDir(), "nested", "probe.log")

	// Execute
	log, err := New(path, slog.LevelInfo)
	require.NoError(t, err)
	log.Info("session attached", "remote", "localhost:3333")
	require.NoError(t, log.Close())

	// Assert
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "session attached")
	assert.Contains(t, string(data), "remote=localhost:3333")
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.log")

	log, err := New(path, slog.LevelWarn)
	require.NoError(t, err)
	log.Debug("dropped")
	log.Info("dropped too")
	log.Warn("kept")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNew_EmptyPathIsNop(t *testing.T) {
	log, err := New("", slog.LevelInfo)

	require.NoError(t, err)
	log.Info("goes nowhere")
	assert.NoError(t, log.Close())
}

func TestNop(t *testing.T) {
	log := Nop()

	log.Error("discarded")
	assert.NoError(t, log.Close())
	assert.NoError(t, log.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "level %q", tt.input)
	}
}

func TestDefaultPath_UsesStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")

	assert.Equal(t, filepath.Join("/tmp/state", "taskprobe", "taskprobe.log"), DefaultPath())
}
