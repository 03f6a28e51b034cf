package logging

import (
	"context"
	"log/slog"

	"clapper/internal/services"
)

// Well-known attribute keys.
const (
	FieldComponent    = "component"
	FieldSubmissionID = "submission_id"
	FieldPhase        = "phase"
	FieldRequestID    = "request_id"
	FieldTransitionID = "transition_id"
	FieldSessionID    = "session_id"
	// FieldEventType classifies a line for filtering and alerting.
	FieldEventType = "event_type"
	// FieldErrorHint is the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldImpact is what the visitor or operator loses.
	FieldImpact = "impact"
)

// WithContext adds the submission id, phase and request id carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.SubmissionIDFromContext(ctx); ok {
		args = append(args, slog.Int64(FieldSubmissionID, id))
	}
	if phase, ok := services.PhaseFromContext(ctx); ok {
		args = append(args, slog.String(FieldPhase, phase))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldRequestID, rid))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}

// WithSession tags every record of one daemon run with its session id.
func WithSession(logger *slog.Logger, sessionID string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	if sessionID == "" {
		return logger
	}
	return logger.With(slog.String(FieldSessionID, sessionID))
}
