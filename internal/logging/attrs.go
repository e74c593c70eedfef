package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/RabowNicholas/swna-automation/internal/services"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Alert marks a line the operator must act on.
func Alert(value string) Attr { return slog.String(FieldAlert, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// ErrorCode is the stable reason code for err, or "unknown".
func ErrorCode(err error) Attr {
	code := services.Code(err)
	if code == "" {
		code = "unknown"
	}
	return slog.String(FieldErrorCode, code)
}

// Decision records a classification or resolution decision with its score.
func Decision(kind, result, subject string, confidence float64) []Attr {
	return []Attr{
		String(FieldDecisionType, kind),
		String("decision_result", result),
		String("decision_subject", subject),
		Float64("confidence", confidence),
	}
}

// Args converts attrs into the variadic form slog's level methods take.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger becomes a no-op.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Caller-supplied values win over the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, "see the audit log for this document"),
		String(FieldImpact, "document left in the inbox"),
	)
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error that always carries event_type and error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, "see the audit log for this document"),
	)
	logger.Error(msg, Args(attrs...)...)
}

func withDefaults(attrs []Attr, defaults ...Attr) []Attr {
	for _, d := range defaults {
		if !hasKey(attrs, d.Key) {
			attrs = append(attrs, d)
		}
	}
	return attrs
}

func hasKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
