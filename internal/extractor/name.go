package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nameStopPatterns mark where the employee name line runs into the
// representative's letterhead or an address.
var nameStopPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bTYLER\b`),
	regexp.MustCompile(`(?i)\bBAILEY\b`),
	regexp.MustCompile(`(?i)\bSOUTHWEST\b`),
	regexp.MustCompile(`(?i)\bNUCLEAR\b`),
	regexp.MustCompile(`(?i)\bADVOCATES\b`),
	regexp.MustCompile(`\b\d{2,5}\s+[A-Za-z]`),
	regexp.MustCompile(`(?i)\b[A-Z]{2}\s+\d{5}\b`),
	regexp.MustCompile(`\b\d{5}$`),
}

var (
	companySuffix = regexp.MustCompile(`(?i)\s+(LLC|INC|CORP|LTD)\.?$`)
	nameSpaces    = regexp.MustCompile(`\s+`)
)

// PersonName is a parsed client name.
type PersonName struct {
	First  string
	Middle string
	Last   string
}

// Canonical renders "Last, First Middle".
func (p PersonName) Canonical() string {
	given := strings.TrimSpace(p.First + " " + p.Middle)
	return p.Last + ", " + given
}

// cleanNameLine trims a raw "Employee Name:" capture down to the name itself.
func cleanNameLine(raw string) string {
	name := nameSpaces.ReplaceAllString(strings.TrimSpace(raw), " ")
	for _, stop := range nameStopPatterns {
		if loc := stop.FindStringIndex(name); loc != nil {
			name = strings.TrimSpace(name[:loc[0]])
			break
		}
	}
	name = companySuffix.ReplaceAllString(name, "")
	return strings.Trim(strings.TrimSpace(name), ",;")
}

// ParseName parses "First Middle Last" or "Last, First Middle" into parts.
// Fewer than two name tokens is not a name.
func ParseName(raw string) (PersonName, bool) {
	cleaned := cleanNameLine(raw)
	if cleaned == "" {
		return PersonName{}, false
	}

	var last string
	var given []string
	if before, after, found := strings.Cut(cleaned, ","); found {
		last = strings.TrimSpace(before)
		given = strings.Fields(after)
		if last == "" || len(given) == 0 || strings.Contains(after, ",") {
			return PersonName{}, false
		}
	} else {
		tokens := strings.Fields(cleaned)
		if len(tokens) < 2 {
			return PersonName{}, false
		}
		last = tokens[len(tokens)-1]
		given = tokens[:len(tokens)-1]
	}
	for _, token := range append([]string{last}, given...) {
		if !isNameToken(token) {
			return PersonName{}, false
		}
	}

	p := PersonName{Last: casing(last), First: casing(given[0])}
	if len(given) > 1 {
		middle := make([]string, 0, len(given)-1)
		for _, g := range given[1:] {
			middle = append(middle, casing(g))
		}
		p.Middle = strings.Join(middle, " ")
	}
	return p, true
}

// isNameToken accepts letters plus the punctuation that shows up in names.
func isNameToken(token string) bool {
	hasLetter := false
	for _, r := range token {
		switch {
		case r == '.' || r == '\'' || r == '-' || r == ' ':
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 0x7f:
			hasLetter = true
		default:
			return false
		}
	}
	return hasLetter
}

// casing title-cases all-upper or all-lower tokens and leaves mixed case
// (McDonald, DeLuca) alone.
func casing(token string) string {
	if token == strings.ToUpper(token) || token == strings.ToLower(token) {
		// Casers keep state; build one per call so parsing stays goroutine safe.
		return cases.Title(language.English).String(token)
	}
	return token
}
