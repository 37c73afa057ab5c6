package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/schoolrecords/schoolrecords/internal/config"
)

const timeFormat = "2006-01-02 15:04:05"

// fileOut is the rotating log file currently behind log.Logger, if any.
var (
	fileMu  sync.Mutex
	fileOut io.WriteCloser
)

// Apply sets the global log level and output writers (console + rotating file).
// An empty cfg.File logs to the console only.
func Apply(cfg config.LoggingConfig, console io.Writer) {
	if console == nil {
		console = os.Stderr
	}
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	applyOutputs(cfg, console)
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LevelForVerbosity maps -v counts to a level name, keeping base when verbosity is zero.
func LevelForVerbosity(base string, verbosity int) string {
	switch {
	case verbosity <= 0:
		return base
	case verbosity == 1:
		return "debug"
	default:
		return "trace"
	}
}

func applyOutputs(cfg config.LoggingConfig, console io.Writer) {
	consoleOutput := zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}
	log.Logger = zerolog.New(consoleOutput).With().Timestamp().Logger()

	if cfg.File == "" {
		swapFile(nil)
		return
	}

	if err := ensureLogDir(cfg.File); err != nil {
		swapFile(nil)
		log.Error().Err(err).Str("path", cfg.File).Msg("Failed to prepare log directory; logging to console only")
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    max(cfg.MaxSizeMB, 1),
		MaxBackups: max(cfg.MaxBackups, 0),
		MaxAge:     max(cfg.MaxAgeDays, 0),
		Compress:   cfg.Compress,
	}

	fileConsole := zerolog.ConsoleWriter{
		Out:        fileWriter,
		TimeFormat: timeFormat,
		NoColor:    true,
	}

	multi := zerolog.MultiLevelWriter(consoleOutput, fileConsole)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()
	swapFile(fileWriter)
}

// Close closes the log file opened by the last Apply. Call it on exit.
func Close() {
	swapFile(nil)
}

// swapFile installs next as the open log file and closes the one it replaces.
func swapFile(next io.WriteCloser) {
	fileMu.Lock()
	prev := fileOut
	fileOut = next
	fileMu.Unlock()

	if prev != nil && prev != next {
		_ = prev.Close()
	}
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
