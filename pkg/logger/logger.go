// Package logger provides structured logging for the toolkit, writing
// human-readable lines to the console and optionally to a per-run log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02 15:04:05"

// Logger wraps zerolog with the call surface used across the repo.
type Logger struct {
	zl   zerolog.Logger
	file *os.File
}

// Config holds logger configuration.
type Config struct {
	Name     string    // component name stamped on every line
	Level    string    // debug|info|warn|error, default info
	Console  io.Writer // default os.Stderr
	FilePath string    // optional plain-text sink, created if set
}

// New creates a logger from the given configuration.
func New(cfg Config) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}}

	var file *os.File
	if cfg.FilePath != "" {
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		writers = append(writers, zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: timeFormat})
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	if cfg.Name != "" {
		zl = zl.With().Str("component", cfg.Name).Logger()
	}

	return &Logger{zl: zl, file: file}, nil
}

// NewDefault creates a console-only logger at info level.
func NewDefault(name string) *Logger {
	log, _ := New(Config{Name: name})
	return log
}

// NewRun creates a logger that tees to the console and to a timestamped
// execution log inside dir, creating dir if needed. Returns the log file path.
func NewRun(name, dir, level string) (*Logger, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("execution_log_%s.txt", time.Now().Format("20060102_150405")))
	log, err := New(Config{Name: name, Level: level, FilePath: path})
	if err != nil {
		return nil, "", err
	}
	return log, path, nil
}

// Close releases the log file, if any. Derived loggers share the file;
// only the root logger should be closed.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// WithField returns a logger that stamps the given field on every line.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger(), file: l.file}
}

// WithError returns a logger that stamps the given error on every line.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().AnErr("error", err).Logger(), file: l.file}
}

// Debug logs a debug message with optional key/value pairs.
func (l *Logger) Debug(msg string, args ...any) { emit(l.zl.Debug(), msg, args) }

// Info logs an info message with optional key/value pairs.
func (l *Logger) Info(msg string, args ...any) { emit(l.zl.Info(), msg, args) }

// Warn logs a warning with optional key/value pairs.
func (l *Logger) Warn(msg string, args ...any) { emit(l.zl.Warn(), msg, args) }

// Error logs an error message with optional key/value pairs.
func (l *Logger) Error(msg string, args ...any) { emit(l.zl.Error(), msg, args) }

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...any) { l.zl.Debug().Msgf(format, args...) }

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...any) { l.zl.Info().Msgf(format, args...) }

// Warnf logs a formatted warning.
func (l *Logger) Warnf(format string, args ...any) { l.zl.Warn().Msgf(format, args...) }

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...any) { l.zl.Error().Msgf(format, args...) }

func emit(e *zerolog.Event, msg string, args []any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			e = e.Interface("arg", args[i])
			break
		}
		e = e.Interface(fmt.Sprint(args[i]), args[i+1])
	}
	e.Msg(msg)
}
