package logging

import (
	"context"
	"log/slog"
)

// Standardized structured logging keys shared across components.
const (
	// FieldComponent names the emitting subsystem; the console handler lifts
	// it into the message prefix.
	FieldComponent = "component"
	// FieldRunID carries the run identifier of the active processing run.
	FieldRunID = "run_id"
	// FieldSubject carries the subject (table) name a run operates on.
	FieldSubject = "subject"
	// FieldRelation carries the junction relation being staged or drained.
	FieldRelation = "relation"
)

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(noopHandler{})
}

// WithComponent returns a logger tagged with a standardized component
// attribute. A nil base falls back to the no-op logger.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (noopHandler) Handle(context.Context, slog.Record) error { return nil }
func (noopHandler) WithAttrs([]slog.Attr) slog.Handler        { return noopHandler{} }
func (noopHandler) WithGroup(string) slog.Handler             { return noopHandler{} }
