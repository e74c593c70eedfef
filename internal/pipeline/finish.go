package pipeline

import (
	"context"
	"log/slog"

	"github.com/RabowNicholas/swna-automation/internal/audit"
	"github.com/RabowNicholas/swna-automation/internal/ledger"
	"github.com/RabowNicholas/swna-automation/internal/logging"
	"github.com/RabowNicholas/swna-automation/internal/notifications"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

// finish emits the terminal audit event, records the ledger row, logs the
// outcome and sends any alert.
func (o *Orchestrator) finish(ctx context.Context, out *Outcome) {
	if out.Stage != "" {
		ctx = services.WithStage(ctx, out.Stage)
	}
	logger := logging.WithContext(ctx, o.logger)

	level := audit.LevelInfo
	switch out.Kind {
	case KindIgnored:
		level = audit.LevelWarn
	case KindFailed:
		level = audit.LevelError
	}
	payload := map[string]any{
		"state":                string(out.State),
		"confidence":           out.Confidence,
		"registry_updated":     out.RegistryUpdated,
		"inconsistent":         out.Inconsistent,
		"needs_reconciliation": out.NeedsReconciliation,
	}
	putString(payload, "type_id", out.TypeID)
	putString(payload, "label", out.Label)
	putString(payload, "case_id", out.CaseID)
	putString(payload, "client_name", out.ClientName)
	putString(payload, "record_id", out.RecordID)
	putString(payload, "destination", out.Destination)
	putString(payload, "error", out.ErrorMessage())
	if len(out.Candidates) > 0 {
		payload["candidates"] = out.Candidates
	}
	event := audit.Event{
		DocumentID: out.Document.ID,
		SessionID:  o.sessionID,
		Action:     audit.ActionOutcome,
		Level:      level,
		Stage:      out.Stage,
		Outcome:    string(out.Kind),
		Reason:     out.Reason,
		DurationMS: out.Duration.Milliseconds(),
		Payload:    payload,
	}
	if err := o.sink.Emit(ctx, event); err != nil {
		logging.WarnWithContext(logger, "audit event not written", "audit_write_failed",
			logging.String("action", event.Action),
			logging.Error(err),
			logging.String(logging.FieldImpact, "audit trail is missing the document outcome"),
		)
	}

	if o.ledger != nil {
		if _, err := o.ledger.Record(ctx, ledgerEntry(*out, o.sessionID)); err != nil {
			logging.WarnWithContext(logger, "ledger write failed", "ledger_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "outcome missing from ledger; audit log still has it"),
			)
		}
	}

	logOutcome(logger, *out)
	o.notify(ctx, logger, *out)
}

func putString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func ledgerEntry(out Outcome, sessionID string) ledger.Entry {
	return ledger.Entry{
		DocumentID:          out.Document.ID,
		SourcePath:          out.Document.Path,
		SHA256:              out.Document.SHA256,
		State:               string(out.State),
		Stage:               out.Stage,
		Reason:              out.Reason,
		ErrorMessage:        out.ErrorMessage(),
		TypeID:              out.TypeID,
		Label:               out.Label,
		Confidence:          out.Confidence,
		CaseID:              out.CaseID,
		ClientName:          out.ClientName,
		RecordID:            out.RecordID,
		Destination:         out.Destination,
		Inconsistent:        out.Inconsistent,
		NeedsReconciliation: out.NeedsReconciliation,
		SessionID:           sessionID,
	}
}

func logOutcome(logger *slog.Logger, out Outcome) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "document_outcome"),
		logging.String("outcome", string(out.Kind)),
		logging.Duration("stage_duration", out.Duration),
	}
	if out.Label != "" {
		attrs = append(attrs, logging.String("document_type", out.Label))
	}
	switch out.Kind {
	case KindSuccess:
		attrs = append(attrs,
			logging.String("client", out.ClientName),
			logging.String("case_id", out.CaseID),
			logging.String("destination", out.Destination),
		)
		logger.Info("document filed", logging.Args(attrs...)...)
	case KindIgnored:
		attrs = append(attrs,
			logging.String("reason", out.Reason),
			logging.Float64("confidence", out.Confidence),
		)
		logging.WarnWithContext(logger, "document ignored", "document_ignored",
			append(attrs,
				logging.String(logging.FieldErrorHint, "file left in inbox; file it by hand if it is a known letter"),
				logging.String(logging.FieldImpact, "document not filed"),
			)...)
	default:
		attrs = append(attrs,
			logging.ErrorCode(out.Err),
			logging.Error(out.Err),
			logging.String(logging.FieldErrorHint, failureHint(out)),
		)
		if len(out.Candidates) > 0 {
			attrs = append(attrs, logging.Any("decision_candidates", out.Candidates))
		}
		if out.Inconsistent {
			attrs = append(attrs, logging.Alert("commit_inconsistent"), logging.Bool("inconsistent", true))
		}
		logging.ErrorWithContext(logger, "document failed", "document_failed", attrs...)
	}
}

func failureHint(out Outcome) string {
	switch {
	case out.Inconsistent:
		return "registry was updated but the file is still in the inbox; move it by hand then run `swna ledger resolve`"
	case out.NeedsReconciliation:
		return "check the client's registry record for a partial update, then run `swna ledger resolve`"
	case services.Retryable(out.Err):
		return "transient failure; the next run will retry this file"
	default:
		return "fix the document or registry data and rerun"
	}
}

func (o *Orchestrator) notify(ctx context.Context, logger *slog.Logger, out Outcome) {
	if out.Kind != KindFailed {
		return
	}
	event := notifications.EventDocumentFailed
	switch {
	case out.Inconsistent:
		event = notifications.EventCommitInconsistent
	case out.NeedsReconciliation:
		event = notifications.EventReconciliationNeeded
	}
	payload := notifications.Payload{
		"source":      out.Document.Path,
		"client":      out.ClientName,
		"destination": out.Destination,
		"stage":       out.Stage,
		"reason":      out.Reason,
		"error":       out.ErrorMessage(),
	}
	if err := o.notifier.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String("notification", string(event)),
			logging.Error(err),
		)
	}
}
