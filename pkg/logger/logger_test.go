package logger

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"info", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"TRACE", zapcore.DebugLevel},
		{" warn ", zapcore.WarnLevel},
		{"Warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"dpanic", zapcore.DPanicLevel},
		{"fatal", zapcore.FatalLevel},
		{"nonsense", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestGenerateTraceID(t *testing.T) {
	t.Parallel()

	a, b := GenerateTraceID(), GenerateTraceID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
}

func TestLogCommandLifecycle(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := log
	SetLogger(zap.New(core))
	t.Cleanup(func() {
		if prev != nil {
			SetLogger(prev)
		}
	})

	done := LogCommandLifecycle("generate")
	var ok error
	done(&ok)

	done = LogCommandLifecycle("generate")
	failed := errors.New("boom")
	done(&failed)

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "Command started", entries[0].Message)
	assert.Equal(t, "Command completed", entries[1].Message)
	assert.Equal(t, "Command failed", entries[3].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "generate", entries[3].ContextMap()["command"])
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

func TestXDGStatePath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, filepath.Join("/state", "microns", "microns.log"), xdgStatePath("microns", "microns.log"))
}

func TestGetLogFileWriter(t *testing.T) {
	t.Parallel()

	_, err := GetLogFileWriter("")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "nested", "microns.log")
	w, err := GetLogFileWriter(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFindWritableLogPathUsesXDGState(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG paths are not used on windows")
	}
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	path, err := FindWritableLogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "microns", "microns.log"), path)
}

func TestLNeverNil(t *testing.T) {
	assert.NotNil(t, L())
}
