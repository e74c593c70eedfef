package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no row has the requested id.
var ErrNotFound = errors.New("ledger entry not found")

// ErrAlreadyResolved is returned when resolving a row that is not flagged.
var ErrAlreadyResolved = errors.New("ledger entry not awaiting reconciliation")

// Entry is one recorded outcome.
type Entry struct {
	ID                  int64     `json:"id"`
	DocumentID          string    `json:"document_id"`
	SourcePath          string    `json:"source_path"`
	SHA256              string    `json:"sha256,omitempty"`
	State               string    `json:"state"`
	Stage               string    `json:"stage,omitempty"`
	Reason              string    `json:"reason,omitempty"`
	ErrorMessage        string    `json:"error_message,omitempty"`
	TypeID              string    `json:"type_id,omitempty"`
	Label               string    `json:"label,omitempty"`
	Confidence          float64   `json:"confidence"`
	CaseID              string    `json:"case_id,omitempty"`
	ClientName          string    `json:"client_name,omitempty"`
	RecordID            string    `json:"record_id,omitempty"`
	Destination         string    `json:"destination,omitempty"`
	Inconsistent        bool      `json:"inconsistent"`
	NeedsReconciliation bool      `json:"needs_reconciliation"`
	SessionID           string    `json:"session_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	ResolutionNote      string    `json:"resolution_note,omitempty"`
	ResolvedAt          time.Time `json:"resolved_at,omitzero"`
}

// ListOptions filters List. Zero values match everything.
type ListOptions struct {
	State               string
	NeedsReconciliation bool
	SessionID           string
	Limit               int
}

// Store is the SQLite-backed ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the ledger at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}
	// busy_timeout is per connection; the DSN applies it to every pooled
	// connection.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const entryColumns = "id, document_id, source_path, sha256, state, stage, reason, error_message, type_id, label, confidence, case_id, client_name, record_id, destination, inconsistent, needs_reconciliation, session_id, created_at, resolution_note, resolved_at"

// Record inserts e and returns its id.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if strings.TrimSpace(e.DocumentID) == "" || strings.TrimSpace(e.State) == "" {
		return 0, errors.New("ledger entry requires document id and state")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (
            document_id, source_path, sha256, state, stage, reason, error_message,
            type_id, label, confidence, case_id, client_name, record_id, destination,
            inconsistent, needs_reconciliation, session_id, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.DocumentID,
		e.SourcePath,
		nullableString(e.SHA256),
		e.State,
		nullableString(e.Stage),
		nullableString(e.Reason),
		nullableString(e.ErrorMessage),
		nullableString(e.TypeID),
		nullableString(e.Label),
		e.Confidence,
		nullableString(e.CaseID),
		nullableString(e.ClientName),
		nullableString(e.RecordID),
		nullableString(e.Destination),
		boolToInt(e.Inconsistent),
		boolToInt(e.NeedsReconciliation),
		nullableString(e.SessionID),
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert outcome: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Get returns the row with id.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM outcomes WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get outcome: %w", err)
	}
	return e, nil
}

// List returns rows newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if opts.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, opts.State)
	}
	if opts.NeedsReconciliation {
		clauses = append(clauses, "needs_reconciliation = 1")
	}
	if opts.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, opts.SessionID)
	}
	query := `SELECT ` + entryColumns + ` FROM outcomes`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PendingReconciliation lists flagged rows, oldest first.
func (s *Store) PendingReconciliation(ctx context.Context) ([]*Entry, error) {
	entries, err := s.List(ctx, ListOptions{NeedsReconciliation: true})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Resolve clears the reconciliation flag on id and records note.
func (s *Store) Resolve(ctx context.Context, id int64, note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return errors.New("resolution note required")
	}
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !e.NeedsReconciliation {
		return fmt.Errorf("%w: %d", ErrAlreadyResolved, id)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE outcomes SET needs_reconciliation = 0, resolution_note = ?, resolved_at = ? WHERE id = ?`,
		note, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("resolve outcome: %w", err)
	}
	return nil
}

// Counts returns the number of rows per state.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM outcomes GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[state] = n
	}
	return counts, rows.Err()
}
