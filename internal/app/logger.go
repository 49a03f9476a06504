// v0
// internal/app/logger.go
package app

import (
	"context"
	"io"
	"log/slog"
	"slices"
)

// newLogger fans entries out to every writer, typically stdout and the log
// file, at the given minimum level.
func newLogger(level slog.Level, writers ...io.Writer) *slog.Logger {
	var sinks sinkHandler
	for _, w := range writers {
		if w != nil {
			sinks = append(sinks, slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
		}
	}
	if len(sinks) == 1 {
		return slog.New(sinks[0])
	}
	return slog.New(sinks)
}

// sinkHandler writes each record to every sink that accepts its level.
type sinkHandler []slog.Handler

func (s sinkHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(s, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (s sinkHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range s {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return s.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (s sinkHandler) WithGroup(name string) slog.Handler {
	return s.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (s sinkHandler) derive(fn func(slog.Handler) slog.Handler) sinkHandler {
	out := make(sinkHandler, len(s))
	for i, h := range s {
		out[i] = fn(h)
	}
	return out
}
