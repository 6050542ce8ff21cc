// Package logging provides the structured logger used across hunkstage.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// ParseLevel maps a case-insensitive level name onto a LogLevel.
func ParseLevel(raw string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBUG":
		return LogLevelDebug, nil
	case "INFO":
		return LogLevelInfo, nil
	case "WARN", "WARNING":
		return LogLevelWarn, nil
	case "ERROR":
		return LogLevelError, nil
	default:
		return "", fmt.Errorf("unknown log level %q", raw)
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// LogField represents a key-value pair in structured logging.
type LogField struct {
	Key   string
	Value any
}

// Field creates a LogField from a key-value pair.
func Field(key string, value any) LogField {
	return LogField{Key: key, Value: value}
}

// Logger provides structured logging capabilities with context support.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...LogField)
	Info(ctx context.Context, msg string, fields ...LogField)
	Warn(ctx context.Context, msg string, fields ...LogField)
	Error(ctx context.Context, msg string, err error, fields ...LogField)
	WithFields(fields ...LogField) Logger
}

// NoOpLogger is a logger that discards all log entries.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(_ context.Context, _ string, _ ...LogField)          {}
func (n *NoOpLogger) Info(_ context.Context, _ string, _ ...LogField)           {}
func (n *NoOpLogger) Warn(_ context.Context, _ string, _ ...LogField)           {}
func (n *NoOpLogger) Error(_ context.Context, _ string, _ error, _ ...LogField) {}
func (n *NoOpLogger) WithFields(_ ...LogField) Logger                           { return n }

// Options configures NewZapLogger.
type Options struct {
	Level LogLevel
	// File, when set, receives JSON lines instead of console output.
	File string
	// Writer receives console output when File is empty. Defaults to stderr.
	Writer io.Writer
}

// ZapLogger implements Logger on top of zap. Trace IDs found in the context
// are attached to every entry.
type ZapLogger struct {
	zap    *zap.Logger
	closer io.Closer
}

// NewZapLogger builds a logger from opts. The returned logger owns the log
// file, if any, and releases it on Close.
func NewZapLogger(opts Options) (*ZapLogger, error) {
	level := opts.Level
	if level == "" {
		level = LogLevelWarn
	}

	var (
		encoder zapcore.Encoder
		sink    zapcore.WriteSyncer
		closer  io.Closer
	)
	if path := strings.TrimSpace(opts.File); path != "" {
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		sink = zapcore.AddSync(file)
		closer = file
	} else {
		writer := opts.Writer
		if writer == nil {
			writer = os.Stderr
		}
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
		encoder = zapcore.NewConsoleEncoder(cfg)
		sink = zapcore.AddSync(writer)
	}

	core := zapcore.NewCore(encoder, sink, level.zapLevel())
	return &ZapLogger{zap: zap.New(core), closer: closer}, nil
}

// Close flushes buffered entries and closes the log file.
func (l *ZapLogger) Close() error {
	_ = l.zap.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...LogField) {
	l.zap.Debug(msg, l.zapFields(ctx, nil, fields)...)
}

func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...LogField) {
	l.zap.Info(msg, l.zapFields(ctx, nil, fields)...)
}

func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...LogField) {
	l.zap.Warn(msg, l.zapFields(ctx, nil, fields)...)
}

func (l *ZapLogger) Error(ctx context.Context, msg string, err error, fields ...LogField) {
	l.zap.Error(msg, l.zapFields(ctx, err, fields)...)
}

func (l *ZapLogger) WithFields(fields ...LogField) Logger {
	return &ZapLogger{zap: l.zap.With(toZap(fields)...), closer: l.closer}
}

func (l *ZapLogger) zapFields(ctx context.Context, err error, fields []LogField) []zap.Field {
	out := toZap(fields)
	if err != nil {
		out = append(out, zap.Error(err))
	}
	if traceID := getTraceID(ctx); traceID != "" {
		out = append(out, zap.String("trace_id", traceID))
	}
	return out
}

func toZap(fields []LogField) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// traceIDKey is the context key for trace IDs.
type traceIDKey struct{}

// WithTraceID adds a trace ID to the context for request correlation.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// getTraceID extracts the trace ID from context, if present.
func getTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}

// NewTraceID creates a trace ID for one CLI invocation.
func NewTraceID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
