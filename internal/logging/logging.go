// Package logging builds the run's slog.Logger. Debug and info records go to
// stdout, warnings and errors go to stderr.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	// Verbose enables debug records.
	Verbose bool

	// Quiet suppresses info records. Debug records are still written when
	// Verbose is set, warnings and errors are never suppressed.
	Quiet bool
}

// LevelDispatchHandler writes records below slog.LevelWarn to one handler and
// the rest to another.
type LevelDispatchHandler struct {
	stdoutHandler slog.Handler
	stderrHandler slog.Handler
	opts          Options
}

func (h *LevelDispatchHandler) Enabled(_ context.Context, level slog.Level) bool {
	switch {
	case level >= slog.LevelWarn:
		return true
	case level < slog.LevelInfo:
		return h.opts.Verbose
	default:
		return !h.opts.Quiet
	}
}

func (h *LevelDispatchHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Enabled(ctx, r.Level) {
		return nil
	}
	if r.Level >= slog.LevelWarn {
		return h.stderrHandler.Handle(ctx, r)
	}
	return h.stdoutHandler.Handle(ctx, r)
}

func (h *LevelDispatchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelDispatchHandler{
		stdoutHandler: h.stdoutHandler.WithAttrs(attrs),
		stderrHandler: h.stderrHandler.WithAttrs(attrs),
		opts:          h.opts,
	}
}

func (h *LevelDispatchHandler) WithGroup(name string) slog.Handler {
	return &LevelDispatchHandler{
		stdoutHandler: h.stdoutHandler.WithGroup(name),
		stderrHandler: h.stderrHandler.WithGroup(name),
		opts:          h.opts,
	}
}

// New returns a logger writing text records to stdout and stderr.
func New(stdout, stderr io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: false,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {

			// Format time to show only the time (HH:MM:SS)
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().Format("15:04:05"))
			}

			return a
		},
	}

	return slog.New(&LevelDispatchHandler{
		stdoutHandler: slog.NewTextHandler(stdout, handlerOpts),
		stderrHandler: slog.NewTextHandler(stderr, handlerOpts),
		opts:          opts,
	})
}

// VerboseFromEnv reports whether LOG_LEVEL asks for debug output.
func VerboseFromEnv() bool {
	return strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug")
}
