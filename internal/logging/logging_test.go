package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/schoolrecords/schoolrecords/internal/config"
)

func TestLevelForVerbosity(t *testing.T) {
	require.Equal(t, "info", LevelForVerbosity("info", 0))
	require.Equal(t, "debug", LevelForVerbosity("info", 1))
	require.Equal(t, "trace", LevelForVerbosity("info", 3))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
	require.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
}

func TestApplyWritesConsoleAndRotatedFile(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		Close()
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "logs", "school.log")
	var console bytes.Buffer

	Apply(config.LoggingConfig{Level: "debug", File: path, MaxSizeMB: 1}, &console)
	log.Debug().Str("table", "students").Msg("schema ready")

	require.Contains(t, console.String(), "schema ready")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "schema ready")
	require.Contains(t, string(data), "table=students")
}

type closeRecorder struct{ closed int }

func (c *closeRecorder) Write(p []byte) (int, error) { return len(p), nil }

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestApplyClosesReplacedLogFile(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		Close()
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	stale := &closeRecorder{}
	swapFile(stale)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	Apply(config.LoggingConfig{Level: "info", File: first}, io.Discard)
	require.Equal(t, 1, stale.closed)
	opened, ok := fileOut.(*lumberjack.Logger)
	require.True(t, ok)
	require.Equal(t, first, opened.Filename)

	Apply(config.LoggingConfig{Level: "info", File: second}, io.Discard)
	require.Equal(t, second, fileOut.(*lumberjack.Logger).Filename)
	log.Info().Msg("after rotation target change")

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Contains(t, string(data), "after rotation target change")
	data, err = os.ReadFile(first)
	if err == nil {
		require.NotContains(t, string(data), "after rotation target change")
	}

	swapFile(stale)
	Apply(config.LoggingConfig{Level: "info"}, io.Discard)
	require.Equal(t, 2, stale.closed)
	require.Nil(t, fileOut)
}
