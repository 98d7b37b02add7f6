// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects handler format and level.
type Options struct {
	Level  string // debug|info|warn|error
	Format string // text|json
	Output io.Writer
	// AddSource records file:line; useful with --debug.
	AddSource bool
}

// ParseLevel converts a level name to slog.Level. Unknown names are an error.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a logger. Output defaults to stderr so stdout stays free for
// command results.
func New(opt Options) (*slog.Logger, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, err
	}
	out := opt.Output
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: level, AddSource: opt.AddSource}
	var h slog.Handler
	switch strings.ToLower(opt.Format) {
	case "json":
		h = slog.NewJSONHandler(out, ho)
	case "", "text":
		h = slog.NewTextHandler(out, ho)
	default:
		return nil, fmt.Errorf("unknown log format %q (use text|json)", opt.Format)
	}
	return slog.New(h).With(slog.String("app", "datascrub")), nil
}

// Init builds a logger and installs it as slog's default.
func Init(opt Options) (*slog.Logger, error) {
	l, err := New(opt)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}
