package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`[\t\f\v]+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^ *[_\-=]{3,} *$`)

	// matchingNoise mirrors the character class scanned letters are reduced to
	// before anchor matching: letters, digits, underscore, whitespace and . - $ % ( ) , :
	matchingNoise = regexp.MustCompile(`[^\p{L}\p{N}_\s.\-$%(),:]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Normalize converts extracted PDF text into clean UTF-8 that still keeps its
// line structure. Label-based field rules depend on line breaks, so only
// encoding and horizontal whitespace are touched.
func Normalize(raw string) string {
	if raw == "" {
		return raw
	}
	s := norm.NFKC.String(strings.ToValidUTF8(raw, " "))
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reBoxNoise.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// MatchingForm reduces text to the single-line lowercase form used for
// anchor comparison. Anchors and document text must both pass through it.
func MatchingForm(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = matchingNoise.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// CollapseSpaces joins all whitespace runs into single spaces.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
