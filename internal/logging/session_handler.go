package logging

import (
	"context"
	"log/slog"

	"github.com/RabowNicholas/swna-automation/internal/services"
)

// FieldSessionID is the standardized structured logging key for session identifiers.
const FieldSessionID = "session_id"

// sessionHandler stamps session_id on every record. Records logged through the
// *Context methods also pick up document_id and stage from ctx, unless the
// logger was already bound to them with WithContext.
type sessionHandler struct {
	base       slog.Handler
	sessionID  string
	hasDocID   bool
	hasStageID bool
}

func newSessionHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &sessionHandler{base: base, sessionID: sessionID}
}

func (h *sessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *sessionHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.String(FieldSessionID, h.sessionID))
	if ctx != nil {
		if id, ok := services.DocumentIDFromContext(ctx); ok && !h.hasDocID && !recordHas(record, FieldDocumentID) {
			record.AddAttrs(slog.String(FieldDocumentID, id))
		}
		if stage, ok := services.StageFromContext(ctx); ok && !h.hasStageID && !recordHas(record, FieldStage) {
			record.AddAttrs(slog.String(FieldStage, stage))
		}
	}
	return h.base.Handle(ctx, record)
}

func (h *sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.base = h.base.WithAttrs(attrs)
	for _, a := range attrs {
		switch a.Key {
		case FieldDocumentID:
			next.hasDocID = true
		case FieldStage:
			next.hasStageID = true
		}
	}
	return &next
}

func (h *sessionHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.base = h.base.WithGroup(name)
	return &next
}

func recordHas(record slog.Record, key string) bool {
	found := false
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = true
			return false
		}
		return true
	})
	return found
}
