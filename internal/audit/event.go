package audit

import "time"

// Action types.
const (
	ActionSessionStarted     = "session_started"
	ActionSessionEnded       = "session_ended"
	ActionDocumentReceived   = "document_received"
	ActionClassified         = "document_classified"
	ActionFieldsExtracted    = "fields_extracted"
	ActionClientResolved     = "client_resolved"
	ActionDestinationChecked = "destination_validated"
	ActionRegistryUpdated    = "registry_updated"
	ActionRegistrySkipped    = "registry_update_skipped"
	ActionFileMoved          = "file_moved"
	ActionOutcome            = "document_outcome"
	ActionCommitInconsistent = "commit_inconsistent"
)

// Levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Event is one audit record.
type Event struct {
	ID         string         `json:"event_id"`
	Timestamp  time.Time      `json:"timestamp"`
	SessionID  string         `json:"session_id"`
	DocumentID string         `json:"document_id,omitempty"`
	Action     string         `json:"action_type"`
	Level      string         `json:"level"`
	Stage      string         `json:"stage,omitempty"`
	Outcome    string         `json:"outcome,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
}
