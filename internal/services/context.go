package services

import "context"

type contextKey string

const (
	documentIDKey contextKey = "document_id"
	stageKey      contextKey = "stage"
	sessionIDKey  contextKey = "session_id"
)

// WithDocumentID annotates context with the stable document identity.
func WithDocumentID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, documentIDKey, id)
}

// DocumentIDFromContext extracts the document identity if present.
func DocumentIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(documentIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithSessionID annotates context with the processing session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext returns the session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
