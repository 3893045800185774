package logging

import (
	"fmt"
	"io"

	charmlog "github.com/charmbracelet/log"
)

// ConsoleLogger implements Logger with human-readable, colored lines for
// interactive terminals
type ConsoleLogger struct {
	logger *charmlog.Logger
	level  Level
}

// NewConsoleLogger creates a console logger writing to writer
func NewConsoleLogger(writer io.Writer, level Level) *ConsoleLogger {
	return &ConsoleLogger{
		logger: charmlog.NewWithOptions(writer, charmlog.Options{
			ReportTimestamp: true,
			Level:           charmLevel(level),
		}),
		level: level,
	}
}

func charmLevel(level Level) charmlog.Level {
	switch level {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case WarnLevel:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}

func keyvals(fields []Field) []any {
	kv := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

func (l *ConsoleLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, keyvals(fields)...)
}

func (l *ConsoleLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, keyvals(fields)...)
}

func (l *ConsoleLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, keyvals(fields)...)
}

func (l *ConsoleLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, keyvals(fields)...)
}

// With creates a child logger with the given fields pre-set
func (l *ConsoleLogger) With(fields ...Field) Logger {
	return &ConsoleLogger{
		logger: l.logger.With(keyvals(fields)...),
		level:  l.level,
	}
}

func (l *ConsoleLogger) SetLevel(level Level) {
	l.level = level
	l.logger.SetLevel(charmLevel(level))
}

func (l *ConsoleLogger) GetLevel() Level { return l.level }

func (l *ConsoleLogger) Enabled(level Level) bool { return level >= l.level }

// NewLogger returns a logger in the named format, "json" or "console"
func NewLogger(format string, writer io.Writer, level Level) (Logger, error) {
	switch format {
	case "json", "":
		return NewJSONLogger(writer, level), nil
	case "console":
		return NewConsoleLogger(writer, level), nil
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
}
