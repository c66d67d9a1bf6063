package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error). Empty means info.
	Level string
	// Format is the output format (text, json). Empty means json.
	Format string
	// Output is the output writer (defaults to os.Stderr).
	Output io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
}

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseFormat normalizes a format name, reporting whether it is known.
func ParseFormat(format string) (string, bool) {
	switch strings.ToLower(format) {
	case "", "json":
		return "json", true
	case "text", "console":
		return "text", true
	default:
		return "", false
	}
}

// ValidLevel reports whether level is a recognized level name.
func ValidLevel(level string) bool {
	_, ok := levels[strings.ToLower(level)]
	return ok
}

func lookupLevel(level string) (slog.Level, error) {
	if level == "" {
		return slog.LevelInfo, nil
	}
	l, ok := levels[strings.ToLower(level)]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// level is shared by every logger New builds so SetLevel applies to all of
// them, including ones already captured by long-lived components.
var level = new(slog.LevelVar)

// New creates a logger. Unknown level or format names are an error.
func New(cfg Config) (Logger, error) {
	lvl, err := lookupLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format, ok := ParseFormat(cfg.Format)
	if !ok {
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level.Set(lvl)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var h slog.Handler
	if format == "text" {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}
	return wrap(slog.New(h)), nil
}

var nop = wrap(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})))

// Nop returns a logger that discards everything.
func Nop() Logger { return nop }

// Default is the logger used when a context carries none. It discards
// output: only the CLI entry point decides where logs go.
func Default() Logger { return nop }

// Slog returns the *slog.Logger behind l, for libraries that take one
// directly. Loggers from other implementations yield slog.Default().
func Slog(l Logger) *slog.Logger {
	if sl, ok := l.(*slogLogger); ok {
		return sl.logger
	}
	return slog.Default()
}

// SetLevel changes the level of every logger built by New.
func SetLevel(name string) error {
	lvl, err := lookupLevel(name)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// GetLevel returns the current level name.
func GetLevel() string {
	switch lvl := level.Level(); {
	case lvl <= slog.LevelDebug:
		return "debug"
	case lvl <= slog.LevelInfo:
		return "info"
	case lvl <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

func wrap(l *slog.Logger) *slogLogger {
	return &slogLogger{logger: l, ctx: context.Background()}
}

func (l *slogLogger) log(lvl slog.Level, msg string, args []any) {
	l.logger.Log(l.ctx, lvl, msg, args...)
}

func (l *slogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *slogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *slogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), ctx: l.ctx}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{logger: l.logger, ctx: ctx}
}
