// internal/utils/logger.go

package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger defines the interface for logging throughout the application.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLogLevel maps a config string to a LogLevel. Unknown values fall back to info.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// LogrusLogger adapts a logrus entry to the Logger interface.
type LogrusLogger struct {
	entry *logrus.Entry
}

// root backs every logger created by NewLogger. Configure changes it in
// place so component loggers built earlier follow the new settings.
var root = newRoot(os.Stdout, InfoLevel, "text")

func newRoot(out io.Writer, level LogLevel, format string) *logrus.Logger {
	l := logrus.New()
	apply(l, out, level, format)
	return l
}

func apply(l *logrus.Logger, out io.Writer, level LogLevel, format string) {
	l.SetOutput(out)
	l.SetLevel(level.logrusLevel())
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}
}

// Configure sets the output, level and format of the process-wide logger.
// It applies to loggers that already exist.
func Configure(out io.Writer, level LogLevel, format string) {
	if out == nil {
		out = os.Stdout
	}
	apply(root, out, level, format)
}

// NewLogger creates a logger backed by the root logrus instance.
func NewLogger() Logger {
	return &LogrusLogger{entry: logrus.NewEntry(root)}
}

// NewLoggerWithOutput creates a standalone logger writing to out.
func NewLoggerWithOutput(out io.Writer, level LogLevel, format string) Logger {
	return &LogrusLogger{entry: logrus.NewEntry(newRoot(out, level, format))}
}

// NewComponentLogger creates a logger tagged with the component name.
func NewComponentLogger(component string) Logger {
	return NewLogger().WithField("component", component)
}

// NewNopLogger returns a logger that discards everything. Used by tests.
func NewNopLogger() Logger {
	return NewLoggerWithOutput(io.Discard, ErrorLevel, "text")
}

func (l *LogrusLogger) Debug(msg string) { l.entry.Debug(msg) }

func (l *LogrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *LogrusLogger) Info(msg string) { l.entry.Info(msg) }

func (l *LogrusLogger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *LogrusLogger) Warn(msg string) { l.entry.Warn(msg) }

func (l *LogrusLogger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *LogrusLogger) Error(msg string) { l.entry.Error(msg) }

func (l *LogrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *LogrusLogger) WithField(key string, value interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithField(key, value)}
}

func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Printf lets the logger stand in for chromedp's WithLogf option.
func (l *LogrusLogger) Printf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
