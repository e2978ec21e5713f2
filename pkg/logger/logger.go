// Package logger provides the structured logger shared by the device
// components. It wraps zerolog and optionally rotates a log file with
// lumberjack.
package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config represents logger configuration
type Config struct {
	ConsoleOutput bool   `yaml:"console_output"`
	ConsoleColor  bool   `yaml:"console_color"`
	FileOutput    bool   `yaml:"file_output"`
	FileName      string `yaml:"file_name"`
	FileMaxSize   string `yaml:"file_max_size"`
	Level         string `yaml:"level"`
}

// DefaultConfig logs info and above to the console.
func DefaultConfig() Config {
	return Config{
		ConsoleOutput: true,
		ConsoleColor:  false,
		FileOutput:    false,
		FileName:      "signcore.log",
		FileMaxSize:   "10MB",
		Level:         "info",
	}
}

// Validate checks the level and size fields.
func (c Config) Validate() error {
	if _, err := parseLogLevel(c.Level); err != nil {
		return err
	}
	if _, err := parseMaxSize(c.FileMaxSize); err != nil {
		return err
	}
	if c.FileOutput && c.FileName == "" {
		return fmt.Errorf("file_name is required when file_output is enabled")
	}
	return nil
}

// Logger wraps a zerolog logger.
type Logger struct {
	zlog zerolog.Logger
}

// New creates a logger writing to the outputs selected in config.
func New(config Config) (*Logger, error) {
	var writers []io.Writer

	if config.ConsoleOutput {
		var consoleWriter io.Writer = os.Stderr
		if config.ConsoleColor {
			consoleWriter = zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: time.RFC3339,
			}
		}
		writers = append(writers, consoleWriter)
	}

	if config.FileOutput {
		if config.FileName == "" {
			return nil, fmt.Errorf("file_name is required when file_output is enabled")
		}

		maxSizeMB, err := parseMaxSize(config.FileMaxSize)
		if err != nil {
			return nil, fmt.Errorf("invalid file_max_size: %w", err)
		}

		writers = append(writers, &lumberjack.Logger{
			Filename: config.FileName,
			MaxSize:  maxSizeMB,
			Compress: true,
		})
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	var writer io.Writer
	if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = io.MultiWriter(writers...)
	}

	return NewWithWriter(config, writer)
}

// NewWithWriter creates a logger that writes JSON lines to w.
func NewWithWriter(config Config, w io.Writer) (*Logger, error) {
	level, err := parseLogLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zlogger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{zlog: zlogger}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Zerolog exposes the underlying logger for callers that build events with
// typed fields.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zlog
}

// With returns a child logger carrying the given key/value fields.
func (l *Logger) With(fields ...interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Fields(fieldsToMap(fields...)).Logger()}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.zlog.Debug().Fields(fieldsToMap(fields...)).Msg(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...interface{}) {
	l.zlog.Info().Fields(fieldsToMap(fields...)).Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.zlog.Warn().Fields(fieldsToMap(fields...)).Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...interface{}) {
	l.zlog.Error().Fields(fieldsToMap(fields...)).Msg(msg)
}

// parseLogLevel converts string to zerolog level
func parseLogLevel(levelStr string) (zerolog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseMaxSize converts size string (e.g., "10MB") to megabytes
func parseMaxSize(sizeStr string) (int, error) {
	if sizeStr == "" {
		return 10, nil
	}

	sizeStr = strings.TrimSuffix(strings.ToUpper(sizeStr), "MB")
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		return 0, fmt.Errorf("invalid size format: %s", sizeStr)
	}
	return size, nil
}

// fieldsToMap converts variadic fields to map for zerolog
func fieldsToMap(fields ...interface{}) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}

	fieldMap := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			fieldMap[key] = fields[i+1]
		}
	}
	return fieldMap
}
