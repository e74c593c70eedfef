package registry

import (
	"strings"
	"time"
)

// LogDateLayout renders dates as MM.DD.YY in log entries and filenames.
const LogDateLayout = "01.02.06"

// LogEntry renders the line appended to a client's log field.
func LogEntry(typeLabel string, day time.Time, suffix string) string {
	entry := "Rcvd " + strings.TrimSpace(typeLabel) + ". Filed Away. " + day.Format(LogDateLayout)
	if suffix = strings.TrimSpace(suffix); suffix != "" {
		entry += " " + suffix
	}
	return entry
}

// AppendLog appends entry to an existing log on its own line.
func AppendLog(existing, entry string) string {
	existing = strings.TrimRight(existing, " \t\r\n")
	if existing == "" {
		return entry
	}
	return existing + "\n" + entry
}

// PlanUpdate computes the write that sets caseID and appends entry. It
// returns ok=false when the record already carries both, so a repeated commit
// does not append the entry twice.
func PlanUpdate(current Record, caseID, entry string) (Update, bool) {
	caseDone := current.CaseID == caseID
	logDone := strings.HasSuffix(strings.TrimRight(current.Log, " \t\r\n"), entry)
	if caseDone && logDone {
		return Update{}, false
	}
	update := Update{}
	if !caseDone {
		update.CaseID = caseID
	}
	if !logDone {
		update.Log = AppendLog(current.Log, entry)
	}
	return update, true
}
