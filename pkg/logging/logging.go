// Package logging provides structured logging for cognigraph
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/HelixDevelopment/cognigraph/pkg/config"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	SpanID    string                 `json:"span_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Logger provides structured logging functionality
type Logger struct {
	level     LogLevel
	writer    io.Writer
	formatter Formatter
	mu        sync.RWMutex
	fields    map[string]interface{}
}

// Formatter interface for log formatting
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// JSONFormatter formats log entries as JSON
type JSONFormatter struct{}

// TextFormatter formats log entries as plain text
type TextFormatter struct{}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Format formats a log entry as plain text
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var builder strings.Builder

	builder.WriteString(entry.Timestamp.Format("2006-01-02 15:04:05"))
	builder.WriteString(" ")
	builder.WriteString(fmt.Sprintf("[%s]", strings.ToUpper(entry.Level)))
	builder.WriteString(" ")

	if entry.Component != "" {
		builder.WriteString(fmt.Sprintf("[%s]", entry.Component))
		builder.WriteString(" ")
	}

	builder.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		builder.WriteString(" ")
		for key, value := range entry.Fields {
			builder.WriteString(fmt.Sprintf("%s=%v ", key, value))
		}
	}

	if entry.Error != "" {
		builder.WriteString(fmt.Sprintf(" error=%s", entry.Error))
	}

	if entry.TraceID != "" {
		builder.WriteString(fmt.Sprintf(" trace_id=%s", entry.TraceID))
	}

	builder.WriteString("\n")
	return []byte(builder.String()), nil
}

// NewLogger creates a new structured logger from configuration
func NewLogger(cfg *config.LoggingConfig) (*Logger, error) {
	logger := &Logger{
		level:  ParseLogLevel(cfg.Level),
		fields: make(map[string]interface{}),
	}

	if err := logger.setupWriter(cfg); err != nil {
		return nil, fmt.Errorf("failed to setup writer: %w", err)
	}

	logger.setupFormatter(cfg)

	return logger, nil
}

// Discard returns a logger that writes nothing. Useful in tests.
func Discard() *Logger {
	return &Logger{
		level:     ErrorLevel + 1,
		writer:    io.Discard,
		formatter: &JSONFormatter{},
		fields:    make(map[string]interface{}),
	}
}

// setupWriter configures the output writer
func (l *Logger) setupWriter(cfg *config.LoggingConfig) error {
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		l.writer = os.Stdout
	case "stderr":
		l.writer = os.Stderr
	case "file":
		if cfg.FilePath == "" {
			return fmt.Errorf("file path must be specified for file output")
		}

		dir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		l.writer = file
	default:
		return fmt.Errorf("unsupported output type: %s", cfg.Output)
	}

	return nil
}

// setupFormatter configures the log formatter
func (l *Logger) setupFormatter(cfg *config.LoggingConfig) {
	switch strings.ToLower(cfg.Format) {
	case "text":
		l.formatter = &TextFormatter{}
	default:
		l.formatter = &JSONFormatter{}
	}
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	newLogger := &Logger{
		level:     l.level,
		writer:    l.writer,
		formatter: l.formatter,
		fields:    make(map[string]interface{}, len(l.fields)+1),
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	newLogger.fields[key] = value

	return newLogger
}

// WithFields adds multiple fields to the logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	logger := l
	for k, v := range fields {
		logger = logger.WithField(k, v)
	}
	return logger
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// WithContext attaches trace and span IDs from an active span, if any
func (l *Logger) WithContext(ctx context.Context) *Logger {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return l.WithField("trace_id", spanCtx.TraceID().String()).
		WithField("span_id", spanCtx.SpanID().String())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(DebugLevel, fmt.Sprintf(msg, args...))
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(InfoLevel, fmt.Sprintf(msg, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(WarnLevel, fmt.Sprintf(msg, args...))
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(ErrorLevel, fmt.Sprintf(msg, args...))
}

// log is the internal logging method
func (l *Logger) log(level LogLevel, message string) {
	if !l.isLevelEnabled(level) {
		return
	}

	fields := l.copyFields()

	entry := &LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level.String(),
		Message:   message,
		Fields:    fields,
	}

	// Promote well-known fields out of the generic map
	if fields != nil {
		if c, ok := fields["component"].(string); ok {
			entry.Component = c
			delete(fields, "component")
		}
		if e, ok := fields["error"].(string); ok {
			entry.Error = e
			delete(fields, "error")
		}
		if t, ok := fields["trace_id"].(string); ok {
			entry.TraceID = t
			delete(fields, "trace_id")
		}
		if s, ok := fields["span_id"].(string); ok {
			entry.SpanID = s
			delete(fields, "span_id")
		}
		if len(fields) == 0 {
			entry.Fields = nil
		}
	}

	l.writeEntry(entry)
}

// writeEntry writes a log entry using the configured formatter
func (l *Logger) writeEntry(entry *LogEntry) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	data, err := l.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to format log entry: %v\n", err)
		return
	}

	if _, err := l.writer.Write(data); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log entry: %v\n", err)
	}
}

// isLevelEnabled checks if a log level is enabled
func (l *Logger) isLevelEnabled(level LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

// copyFields creates a copy of the logger's fields
func (l *Logger) copyFields() map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.fields) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return fields
}
