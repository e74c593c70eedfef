package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Filter selects events when reading a file back. Zero fields match all.
//
// Client and CaseID select whole documents: every event of a document
// matches when any of its events names the client (case-insensitive
// substring of client or client_name) or carries the case id.
type Filter struct {
	DocumentID string
	Action     string
	Level      string
	Client     string
	CaseID     string
}

func (f Filter) match(e Event) bool {
	return (f.DocumentID == "" || e.DocumentID == f.DocumentID) &&
		(f.Action == "" || e.Action == f.Action) &&
		(f.Level == "" || e.Level == f.Level)
}

func (f Filter) byDocument() bool {
	return strings.TrimSpace(f.Client) != "" || strings.TrimSpace(f.CaseID) != ""
}

func (f Filter) mentions(e Event) bool {
	if id := strings.TrimSpace(f.CaseID); id != "" && payloadString(e, "case_id") != id {
		return false
	}
	if client := strings.ToLower(strings.TrimSpace(f.Client)); client != "" {
		if !strings.Contains(strings.ToLower(payloadString(e, "client")), client) &&
			!strings.Contains(strings.ToLower(payloadString(e, "client_name")), client) {
			return false
		}
	}
	return true
}

func payloadString(e Event, key string) string {
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}

// ReadLast returns the last limit events of path that pass filter, oldest
// first. limit <= 0 returns every matching event. A missing file yields no
// events.
func ReadLast(path string, limit int, filter Filter) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events []Event
	docs := map[string]bool{}
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("decode %s line %d: %w", filepath.Base(path), line, err)
		}
		if filter.byDocument() && e.DocumentID != "" && filter.mentions(e) {
			docs[e.DocumentID] = true
		}
		if !filter.match(e) {
			continue
		}
		events = append(events, e)
		if !filter.byDocument() && limit > 0 && len(events) > limit {
			events = events[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit file: %w", err)
	}

	if filter.byDocument() {
		kept := events[:0]
		for _, e := range events {
			if docs[e.DocumentID] {
				kept = append(kept, e)
			}
		}
		events = kept
		if limit > 0 && len(events) > limit {
			events = events[len(events)-limit:]
		}
	}
	return events, nil
}

// Files lists audit files in dir, newest first.
func Files(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "audit-*.jsonl"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}
