package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestInit_File(t *testing.T) {
	original := zlog.Logger
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		zlog.Logger = original
		zerolog.SetGlobalLevel(originalLevel)
	})

	path := filepath.Join(t.TempDir(), "logs", "pomobox.log")
	closeLog, err := Init(Config{Output: "file", Level: "debug", File: path})
	require.NoError(t, err)

	zlog.Info().Msg("logger: hello")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"logger: hello"`)
	assert.Contains(t, string(data), `"caller"`)
}

func TestDefaultFile(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	path, err := DefaultFile()
	require.NoError(t, err)
	assert.Equal(t, "pomobox.log", filepath.Base(path))
	assert.Equal(t, "pomobox", filepath.Base(filepath.Dir(path)))
}
