package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink receives audit events.
type Sink interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}

// FileName returns the audit file name for a session started at start.
func FileName(start time.Time, sessionID string) string {
	short := strings.ReplaceAll(sessionID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return "audit-" + start.Format("20060102-150405") + "-" + short + ".jsonl"
}

// FileSink appends events to a JSONL file and syncs after every write.
type FileSink struct {
	mu        sync.Mutex
	path      string
	sessionID string
	file      *os.File
	enc       *json.Encoder
	now       func() time.Time
}

// OpenFile opens (or creates) path for appending. Every event written
// through the sink is stamped with sessionID.
func OpenFile(path, sessionID string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &FileSink{path: path, sessionID: sessionID, file: f, enc: enc, now: time.Now}, nil
}

// Path returns the file being written.
func (s *FileSink) Path() string { return s.path }

// Emit stamps and appends event.
func (s *FileSink) Emit(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("audit sink closed")
	}
	stamp(&event, s.sessionID, s.now)
	if err := s.enc.Encode(event); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return s.file.Sync()
}

// Close flushes and closes the file. Further emits fail.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Memory keeps events in memory.
type Memory struct {
	mu        sync.Mutex
	sessionID string
	events    []Event
	closed    bool
}

// NewMemory returns an in-memory sink stamping events with sessionID.
func NewMemory(sessionID string) *Memory {
	return &Memory{sessionID: sessionID}
}

// Emit records event.
func (m *Memory) Emit(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stamp(&event, m.sessionID, time.Now)
	m.events = append(m.events, event)
	return nil
}

// Close marks the sink closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Events returns a copy of everything emitted.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

// ForDocument returns the events for one document in emission order.
func (m *Memory) ForDocument(documentID string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out
}

// Actions lists the action types for one document in order.
func (m *Memory) Actions(documentID string) []string {
	events := m.ForDocument(documentID)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}

type multi []Sink

// Multi fans events out to every sink. Emit and Close return the joined
// errors of all sinks.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Emit(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Emit(ctx, event))
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(context.Context, Event) error { return nil }
func (discard) Close() error                      { return nil }

func stamp(event *Event, sessionID string, now func() time.Time) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = sessionID
	}
	if event.Level == "" {
		event.Level = LevelInfo
	}
}
