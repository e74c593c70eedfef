package registry

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Record is one client row in the registry.
type Record struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	CaseID      string `json:"case_id,omitempty"`
	Log         string `json:"log,omitempty"`
}

// Update carries the fields a commit writes. Empty values are left untouched.
type Update struct {
	CaseID string `json:"case_id,omitempty"`
	Log    string `json:"log,omitempty"`
}

// Empty reports whether the update writes nothing.
func (u Update) Empty() bool {
	return u.CaseID == "" && u.Log == ""
}

// Client is the registry surface the pipeline depends on.
//
// FindByName returns candidate records whose display name may match name. The
// result can include records that only share a prefix; callers apply exact
// matching on MatchKey themselves.
type Client interface {
	FindByName(ctx context.Context, name string) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, id string, update Update) (Record, error)
}

// disambiguatorPattern matches one trailing tag: "(Group B)", "[2019]",
// "#1234" or " - 12345678".
var disambiguatorPattern = regexp.MustCompile(`\s*(?:\([^()]*\)|\[[^\[\]]*\]|#\S+|\s-\s+\S.*)$`)

// StripDisambiguators removes trailing case-group tags from a display name.
// "Smith, John (B) - 2019" becomes "Smith, John".
func StripDisambiguators(displayName string) string {
	name := strings.TrimSpace(displayName)
	for {
		stripped := strings.TrimSpace(disambiguatorPattern.ReplaceAllString(name, ""))
		if stripped == name || stripped == "" {
			return name
		}
		name = stripped
	}
}

// MatchKey is the comparison form of a client name: disambiguators stripped,
// NFKC, single spaces, one space after the comma, lowercase.
func MatchKey(name string) string {
	name = norm.NFKC.String(StripDisambiguators(name))
	if last, given, ok := strings.Cut(name, ","); ok {
		name = strings.TrimSpace(last) + ", " + strings.TrimSpace(given)
	}
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// SplitDisplayName returns the first and last name of a "Last, First Middle"
// display name. ok is false when the name is not in that shape.
func SplitDisplayName(displayName string) (first, last string, ok bool) {
	lastPart, given, found := strings.Cut(StripDisambiguators(displayName), ",")
	if !found {
		return "", "", false
	}
	last = strings.Join(strings.Fields(lastPart), " ")
	fields := strings.Fields(given)
	if last == "" || len(fields) == 0 {
		return "", "", false
	}
	return fields[0], last, true
}
