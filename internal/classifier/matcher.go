package classifier

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/RabowNicholas/swna-automation/internal/textutil"
)

// Matcher tests a phrase against text already in textutil.MatchingForm.
type Matcher interface {
	Match(text string) bool
	String() string
}

type literal struct {
	phrase string
	re     *regexp.Regexp
}

// Literal builds a matcher for a phrase. The phrase is reduced to matching
// form and must appear on word boundaries wherever it starts or ends with a
// letter or digit.
func Literal(phrase string) Matcher {
	normalized := textutil.MatchingForm(phrase)
	if normalized == "" {
		panic("classifier: empty literal anchor")
	}
	var b strings.Builder
	runes := []rune(normalized)
	if isWordRune(runes[0]) {
		b.WriteString(`(?:^|[^\p{L}\p{N}])`)
	}
	b.WriteString(regexp.QuoteMeta(normalized))
	if isWordRune(runes[len(runes)-1]) {
		b.WriteString(`(?:$|[^\p{L}\p{N}])`)
	}
	return literal{phrase: normalized, re: regexp.MustCompile(b.String())}
}

func (l literal) Match(text string) bool { return l.re.MatchString(text) }

func (l literal) String() string { return l.phrase }

type pattern struct {
	re *regexp.Regexp
}

// Pattern builds a regular-expression matcher evaluated against matching-form
// text, which is lowercase.
func Pattern(expr string) Matcher {
	return pattern{re: regexp.MustCompile(expr)}
}

func (p pattern) Match(text string) bool { return p.re.MatchString(text) }

func (p pattern) String() string { return "/" + p.re.String() + "/" }

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Anchor is one required element of a signature. Any alternative satisfies it.
type Anchor struct {
	Alternatives []Matcher
}

// AnyOf builds an anchor satisfied by any of the given literal phrases.
func AnyOf(phrases ...string) Anchor {
	matchers := make([]Matcher, 0, len(phrases))
	for _, phrase := range phrases {
		matchers = append(matchers, Literal(phrase))
	}
	return Anchor{Alternatives: matchers}
}

// Matches reports the first alternative found in text.
func (a Anchor) Matches(text string) (Matcher, bool) {
	for _, alt := range a.Alternatives {
		if alt.Match(text) {
			return alt, true
		}
	}
	return nil, false
}

func (a Anchor) String() string {
	parts := make([]string, 0, len(a.Alternatives))
	for _, alt := range a.Alternatives {
		parts = append(parts, alt.String())
	}
	return strings.Join(parts, " | ")
}
