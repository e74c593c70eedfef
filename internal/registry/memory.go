package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/RabowNicholas/swna-automation/internal/services"
)

// Memory is an in-process registry. It backs tests and dry runs and can be
// told to fail specific operations.
type Memory struct {
	mu      sync.Mutex
	order   []string
	records map[string]Record
	nextID  int

	// FindErr, GetErr and UpdateErr are returned by the matching operation
	// when set.
	FindErr   error
	GetErr    error
	UpdateErr error
	// BeforeUpdate runs ahead of every update; a non-nil error aborts it.
	BeforeUpdate func(id string, update Update) error

	updates []UpdateCall
}

// UpdateCall records one applied update.
type UpdateCall struct {
	ID     string
	Update Update
}

var _ Client = (*Memory)(nil)

// NewMemory returns a registry seeded with records. Records without an id
// get a generated one.
func NewMemory(records ...Record) *Memory {
	m := &Memory{records: make(map[string]Record)}
	for _, r := range records {
		m.Add(r)
	}
	return m
}

// Add inserts or replaces a record and returns it with its id.
func (m *Memory) Add(r Record) Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		m.nextID++
		r.ID = fmt.Sprintf("rec%06d", m.nextID)
	}
	if _, exists := m.records[r.ID]; !exists {
		m.order = append(m.order, r.ID)
	}
	m.records[r.ID] = r
	return r
}

// FindByName returns records whose display name starts with name, ignoring
// case, in insertion order.
func (m *Memory) FindByName(_ context.Context, name string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	prefix := strings.ToLower(strings.TrimSpace(name))
	var out []Record
	for _, id := range m.order {
		r := m.records[id]
		if strings.HasPrefix(strings.ToLower(r.DisplayName), prefix) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Get returns the record with id.
func (m *Memory) Get(_ context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return Record{}, m.GetErr
	}
	r, ok := m.records[id]
	if !ok {
		return Record{}, services.Wrap(services.ErrRegistryAPI, services.StageCommit, "get record", "unknown record "+id, nil)
	}
	return r, nil
}

// Update applies the non-empty fields of update.
func (m *Memory) Update(_ context.Context, id string, update Update) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return Record{}, m.UpdateErr
	}
	if m.BeforeUpdate != nil {
		if err := m.BeforeUpdate(id, update); err != nil {
			return Record{}, err
		}
	}
	r, ok := m.records[id]
	if !ok {
		return Record{}, services.Wrap(services.ErrRegistryAPI, services.StageCommit, "update record", "unknown record "+id, nil)
	}
	if update.CaseID != "" {
		r.CaseID = update.CaseID
	}
	if update.Log != "" {
		r.Log = update.Log
	}
	m.records[id] = r
	m.updates = append(m.updates, UpdateCall{ID: id, Update: update})
	return r, nil
}

// Record returns the stored record with id.
func (m *Memory) Record(id string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	return r, ok
}

// Updates returns every applied update in order.
func (m *Memory) Updates() []UpdateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.updates)
}
