package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RabowNicholas/swna-automation/internal/fileutil"
)

// State is a document's position in the state machine.
type State string

const (
	StateReceived   State = "received"
	StateClassified State = "classified"
	StateExtracted  State = "extracted"
	StateResolved   State = "resolved"
	StateValidated  State = "validated"
	StateCommitted  State = "committed"
	StateIgnored    State = "ignored"
	StateFailed     State = "failed"
)

// Terminal reports whether s ends processing.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateIgnored || s == StateFailed
}

// Kind is the tag of a processing outcome.
type Kind string

const (
	KindSuccess Kind = "success"
	KindIgnored Kind = "ignored"
	KindFailed  Kind = "failed"
)

// ReasonUnknown is the IGNORED reason for documents below the threshold.
const ReasonUnknown = "unknown"

// Document identifies one input file for the whole pipeline.
type Document struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Name   string `json:"name"`
	SHA256 string `json:"sha256,omitempty"`
	Size   int64  `json:"size"`
}

// Identify hashes path and builds its stable identity: the original file
// name plus the first 16 hex characters of the content hash.
func Identify(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, err
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%s is a directory", path)
	}
	sum, err := fileutil.HashFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("hash %s: %w", path, err)
	}
	name := filepath.Base(path)
	return Document{
		ID:     name + "#" + sum[:16],
		Path:   path,
		Name:   name,
		SHA256: sum,
		Size:   info.Size(),
	}, nil
}

// Outcome is the single terminal result of processing a document.
type Outcome struct {
	Document            Document      `json:"document"`
	Kind                Kind          `json:"kind"`
	State               State         `json:"state"`
	Stage               string        `json:"stage,omitempty"`
	Reason              string        `json:"reason,omitempty"`
	Err                 error         `json:"-"`
	TypeID              string        `json:"type_id,omitempty"`
	Label               string        `json:"label,omitempty"`
	Confidence          float64       `json:"confidence"`
	Candidates          []string      `json:"candidates,omitempty"`
	CaseID              string        `json:"case_id,omitempty"`
	ClientName          string        `json:"client_name,omitempty"`
	RecordID            string        `json:"record_id,omitempty"`
	Destination         string        `json:"destination,omitempty"`
	RegistryUpdated     bool          `json:"registry_updated"`
	Inconsistent        bool          `json:"inconsistent"`
	NeedsReconciliation bool          `json:"needs_reconciliation"`
	Duration            time.Duration `json:"duration"`
}

// ErrorMessage returns the error text or "".
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Summary aggregates a run.
type Summary struct {
	Outcomes     []Outcome     `json:"outcomes"`
	Committed    int           `json:"committed"`
	Ignored      int           `json:"ignored"`
	Failed       int           `json:"failed"`
	Inconsistent int           `json:"inconsistent"`
	Unprocessed  int           `json:"unprocessed"`
	Duration     time.Duration `json:"duration"`
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Kind {
	case KindSuccess:
		s.Committed++
	case KindIgnored:
		s.Ignored++
	case KindFailed:
		s.Failed++
		if o.Inconsistent {
			s.Inconsistent++
		}
	}
}
