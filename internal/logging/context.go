package logging

import (
	"context"
	"log/slog"

	"github.com/RabowNicholas/swna-automation/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldDocumentID is the standardized structured logging key for document identifiers.
	FieldDocumentID = "document_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldEventType names the kind of event a log line records.
	FieldEventType = "event_type"
	// FieldErrorCode carries the stable error code from services.Code.
	FieldErrorCode = "error_code"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType labels decision logs (classification, resolution).
	FieldDecisionType = "decision_type"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := services.DocumentIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDocumentID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
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
	return logger.With(Args(fields...)...)
}
