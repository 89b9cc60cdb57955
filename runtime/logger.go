package runtime

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record; Enabled reports false so callers skip building
// attributes.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(discard{}))
}

// SetLogger installs the logger used by the engine, its pool and its buffer
// cache. The engine is silent by default; nil restores that.
//
// Levels:
//   - Debug: arena allocation and eviction, per-phase timing
//   - Info: engine start and shutdown
//   - Warn: cancelled or failed steps
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discard{})
	}
	logger.Store(l)
}

// Logger returns the current engine logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return logger.Load()
}
