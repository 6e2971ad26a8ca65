// Package logger holds the process-wide structured logger. Records go to a
// rotating file set in the [log] section of config.toml; stderr joins in when
// debugging.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/stronghabit/internal/constants"
)

const (
	DefaultLevel      = "warn"
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

var (
	// Logger is nil until Init succeeds; the helpers below are no-ops until then.
	Logger *log.Logger

	file *lumberjack.Logger
)

// Config mirrors config.Log plus the --debug flag.
type Config struct {
	File       string
	Level      string
	Debug      bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultFile is <configDir>/logs/stronghabit.log.
func DefaultFile(configDir string) string {
	return filepath.Join(configDir, "logs", constants.AppName+".log")
}

// Init replaces the global logger. Debug forces the debug level regardless
// of Level.
func Init(cfg Config) error {
	if strings.TrimSpace(cfg.File) == "" {
		return fmt.Errorf("logger: no log file configured")
	}
	level, err := levelFor(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return fmt.Errorf("logger: create log directory: %w", err)
	}

	_ = Close()
	file = &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    positiveOr(cfg.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: positiveOr(cfg.MaxBackups, DefaultMaxBackups),
		MaxAge:     positiveOr(cfg.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   true,
	}

	var w io.Writer = file
	if cfg.Debug {
		w = io.MultiWriter(os.Stderr, file)
	}
	Logger = log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})
	return nil
}

// Close releases the log file. Logging after Close reopens it.
func Close() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func levelFor(cfg Config) (log.Level, error) {
	if cfg.Debug {
		return log.DebugLevel, nil
	}
	name := strings.TrimSpace(cfg.Level)
	if name == "" {
		name = DefaultLevel
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return 0, fmt.Errorf("logger: %w", err)
	}
	return level, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal logs and exits with status 1.
func Fatal(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
