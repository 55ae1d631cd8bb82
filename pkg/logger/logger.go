// Package logger is a thin structured-logging layer over log/slog.
// It emits one JSON object per line and adds field constructors for
// the identifiers that recur across the platform (learner, content
// node, attempt, interaction).
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Level is the minimum severity a logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a config string onto a Level. Unrecognized values
// fall back to info rather than failing startup.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value any
}

// F builds an arbitrary field.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value any) Field         { return Field{Key: key, Value: value} }

// Err builds the conventional "error" field; a nil error logs as null.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration logs a duration in its human form ("1.5s"), not nanoseconds.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Time logs a timestamp as RFC 3339.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value.Format(time.RFC3339)}
}

// Options configures a Logger.
type Options struct {
	// Output defaults to stdout.
	Output io.Writer

	// Level is the minimum severity to emit.
	Level Level

	// AddCaller attaches the source file and line of the log call.
	AddCaller bool
}

// Logger writes structured JSON log lines. The zero value is not
// usable; construct with New or Default.
type Logger struct {
	s *slog.Logger
}

// New builds a Logger from options.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	h := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     opts.Level.slog(),
		AddSource: opts.AddCaller,
	})
	return &Logger{s: slog.New(h)}
}

// Default returns an info-level logger on stdout.
func Default() *Logger {
	return New(Options{})
}

// With returns a child logger that attaches the fields to every line.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{s: l.s.With(attrs(fields)...)}
}

// Slog exposes the underlying slog logger for packages that take one.
func (l *Logger) Slog() *slog.Logger { return l.s }

func (l *Logger) Debug(msg string, fields ...Field) { l.s.Debug(msg, attrs(fields)...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.s.Info(msg, attrs(fields)...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.s.Warn(msg, attrs(fields)...) }
func (l *Logger) Error(msg string, fields ...Field) { l.s.Error(msg, attrs(fields)...) }

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

// Field constructors for the platform's recurring identifiers.

func LearnerID(id string) Field     { return String("learner_id", id) }
func ContentNodeID(id string) Field { return String("content_node_id", id) }
func AttemptID(id string) Field     { return String("attempt_id", id) }
func InteractionID(id string) Field { return String("interaction_id", id) }
func Email(email string) Field      { return String("email", email) }
func Tier(tier string) Field        { return String("tier", tier) }
func Credits(n int) Field           { return Int("credits", n) }
func Score(s float64) Field         { return Float64("score", s) }
func QueueDepth(n int64) Field      { return Int64("queue_depth", n) }
func Component(name string) Field   { return String("component", name) }
func Operation(name string) Field   { return String("operation", name) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
