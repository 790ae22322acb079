package logger

import (
	"context"
	"log/slog"
	"runtime"
)

type conditionalSourceHandler struct {
	handler     slog.Handler
	withSource  map[slog.Level]bool
	callerDepth int
}

// NewConditionalSourceHandler wraps handler so that only records at the given
// levels carry a source attribute. The wrapped handler must not set AddSource.
func NewConditionalSourceHandler(handler slog.Handler, levels ...slog.Level) slog.Handler {
	withSource := make(map[slog.Level]bool, len(levels))
	for _, level := range levels {
		withSource[level] = true
	}
	return &conditionalSourceHandler{
		handler:     handler,
		withSource:  withSource,
		callerDepth: 3,
	}
}

func (h *conditionalSourceHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.withSource[r.Level] {
		src := recordSource(r)
		if src == nil {
			var pcs [1]uintptr
			runtime.Callers(h.callerDepth, pcs[:])
			f, _ := runtime.CallersFrames(pcs[:]).Next()
			src = &slog.Source{Function: f.Function, File: f.File, Line: f.Line}
		}
		r.AddAttrs(slog.Any(slog.SourceKey, src))
	}
	return h.handler.Handle(ctx, r)
}

// recordSource resolves the caller slog captured on the record, if any.
func recordSource(r slog.Record) *slog.Source {
	if r.PC == 0 {
		return nil
	}
	f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
	if f.File == "" {
		return nil
	}
	return &slog.Source{Function: f.Function, File: f.File, Line: f.Line}
}

func (h *conditionalSourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &conditionalSourceHandler{
		handler:     h.handler.WithAttrs(attrs),
		withSource:  h.withSource,
		callerDepth: h.callerDepth,
	}
}

func (h *conditionalSourceHandler) WithGroup(name string) slog.Handler {
	return &conditionalSourceHandler{
		handler:     h.handler.WithGroup(name),
		withSource:  h.withSource,
		callerDepth: h.callerDepth,
	}
}

func (h *conditionalSourceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}
