package logging

import (
	"context"
	"errors"
	"log/slog"
)

// route is one output with its own minimum level.
type route struct {
	handler slog.Handler
	floor   slog.Level
}

// router sends each record to every route whose floor it clears. When runID
// is set it is appended to every record before routing.
type router struct {
	routes []route
	runID  string
}

func newRouter(runID string, routes ...route) slog.Handler {
	var kept []route
	for _, r := range routes {
		if r.handler != nil {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return NoopHandler{}
	}
	return &router{routes: kept, runID: runID}
}

func (h *router) Enabled(ctx context.Context, level slog.Level) bool {
	for _, r := range h.routes {
		if level >= r.floor && r.handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *router) Handle(ctx context.Context, record slog.Record) error {
	if h.runID != "" {
		record = record.Clone()
		record.AddAttrs(slog.String(FieldRunID, h.runID))
	}
	var errs []error
	for _, r := range h.routes {
		if record.Level < r.floor || !r.handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := r.handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *router) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *router) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *router) derive(fn func(slog.Handler) slog.Handler) *router {
	routes := make([]route, len(h.routes))
	for i, r := range h.routes {
		routes[i] = route{handler: fn(r.handler), floor: r.floor}
	}
	return &router{routes: routes, runID: h.runID}
}

// WithLevelOverride returns a logger that drops records below level while
// keeping the attributes and outputs of logger.
func WithLevelOverride(logger *slog.Logger, level slog.Level) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return slog.New(newRouter("", route{handler: logger.Handler(), floor: level}))
}
