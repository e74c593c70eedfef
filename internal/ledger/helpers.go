package ledger

import (
	"database/sql"
	"errors"
	"time"
)

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		e              Entry
		sha            sql.NullString
		stage          sql.NullString
		reason         sql.NullString
		errorMessage   sql.NullString
		typeID         sql.NullString
		label          sql.NullString
		caseID         sql.NullString
		clientName     sql.NullString
		recordID       sql.NullString
		destination    sql.NullString
		inconsistent   int64
		needsReconcile int64
		sessionID      sql.NullString
		createdRaw     string
		note           sql.NullString
		resolvedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&e.ID,
		&e.DocumentID,
		&e.SourcePath,
		&sha,
		&e.State,
		&stage,
		&reason,
		&errorMessage,
		&typeID,
		&label,
		&e.Confidence,
		&caseID,
		&clientName,
		&recordID,
		&destination,
		&inconsistent,
		&needsReconcile,
		&sessionID,
		&createdRaw,
		&note,
		&resolvedRaw,
	); err != nil {
		return nil, err
	}
	e.SHA256 = sha.String
	e.Stage = stage.String
	e.Reason = reason.String
	e.ErrorMessage = errorMessage.String
	e.TypeID = typeID.String
	e.Label = label.String
	e.CaseID = caseID.String
	e.ClientName = clientName.String
	e.RecordID = recordID.String
	e.Destination = destination.String
	e.Inconsistent = inconsistent != 0
	e.NeedsReconciliation = needsReconcile != 0
	e.SessionID = sessionID.String
	e.ResolutionNote = note.String
	if created, err := parseTimeString(createdRaw); err == nil {
		e.CreatedAt = created
	}
	if resolved, err := parseTimeString(resolvedRaw.String); err == nil {
		e.ResolvedAt = resolved
	}
	return &e, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
