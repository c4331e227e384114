package logging

import (
	"context"
	"log/slog"

	"torex/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the standardized structured logging key for the current step of an invocation.
	FieldStage = "stage"
	// FieldRunID identifies one torex invocation across console and file output.
	FieldRunID = "run_id"
	// FieldTorrent is the release name being processed.
	FieldTorrent = "torrent"
	// FieldLabel is the torrent client's category label.
	FieldLabel = "label"
	// FieldEventType classifies a record for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries services.Kind for failed operations.
	FieldErrorKind = "error_kind"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		return []slog.Attr{slog.String(FieldStage, stage)}
	}
	return nil
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}
