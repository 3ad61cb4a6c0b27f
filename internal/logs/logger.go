// Package logs builds the process logger: text records for the terminal and,
// optionally, JSON records appended to a file, fanned out from one level.
package logs

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

type Options struct {
	// Level is debug|info|warn|error. Empty means warn.
	Level string
	// Terminal receives text records. Nil disables them (the TUI owns the screen).
	Terminal io.Writer
	// File, when set, receives JSON records.
	File string
}

// Logger is a slog.Logger whose level can change after construction.
type Logger struct {
	*slog.Logger
	Level *slog.LevelVar

	closers []io.Closer
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", s)
}

func New(opts Options) (*Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	level := new(slog.LevelVar)
	level.Set(lvl)
	out := &Logger{Level: level}

	var handlers []slog.Handler
	if opts.Terminal != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.Terminal, &slog.HandlerOptions{Level: level}))
	}
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out.closers = append(out.closers, f)
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}

	switch len(handlers) {
	case 0:
		out.Logger = slog.New(slog.DiscardHandler)
	case 1:
		out.Logger = slog.New(handlers[0])
	default:
		out.Logger = slog.New(slogmulti.Fanout(handlers...))
	}
	return out, nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler), Level: new(slog.LevelVar)}
}

func (l *Logger) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.closers = nil
	return first
}
