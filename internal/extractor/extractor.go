package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/RabowNicholas/swna-automation/internal/classifier"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

// Result holds every required field of a signature plus any optional
// qualifiers that were found. A Result is only returned when complete.
type Result struct {
	TypeID     string              `json:"type_id"`
	Label      string              `json:"label"`
	CaseID     string              `json:"case_id"`
	ClientName string              `json:"client_name"`
	Name       PersonName          `json:"-"`
	Qualifiers map[string]string   `json:"qualifiers,omitempty"`
	RawMatches map[string][]string `json:"raw_matches,omitempty"`
}

// FieldError reports which field failed and the distinct candidates seen.
type FieldError struct {
	Field      string
	Candidates []string
	err        error
}

func (e *FieldError) Error() string { return e.err.Error() }

func (e *FieldError) Unwrap() error { return e.err }

func missing(field, detail string) error {
	return &FieldError{
		Field: field,
		err:   services.Wrap(services.ErrMissingField, services.StageExtract, field, detail, nil),
	}
}

func ambiguous(field string, candidates []string) error {
	return &FieldError{
		Field:      field,
		Candidates: candidates,
		err: services.Wrap(services.ErrAmbiguousField, services.StageExtract, field,
			fmt.Sprintf("%d differing candidates: %s", len(candidates), strings.Join(candidates, " | ")), nil),
	}
}

// Extract applies the signature's field rules to line-preserving text.
// Required fields must resolve to exactly one distinct normalized value;
// optional fields take their first match and never fail extraction.
func Extract(text string, sig classifier.Signature) (*Result, error) {
	result := &Result{
		TypeID:     sig.TypeID,
		Qualifiers: map[string]string{},
		RawMatches: map[string][]string{},
	}

	for _, rule := range sig.Fields {
		raw := firstMatchingPattern(text, rule.Patterns)
		if len(raw) > 0 {
			result.RawMatches[rule.Name] = raw
		}

		if !rule.Required {
			if len(raw) == 0 {
				continue
			}
			if value, ok := normalizeQualifier(rule.Name, raw[0]); ok {
				result.Qualifiers[rule.Name] = value
			}
			continue
		}

		if len(raw) == 0 {
			return nil, missing(rule.Name, "no match in document text")
		}
		switch rule.Name {
		case classifier.FieldClientName:
			name, err := distinctName(raw)
			if err != nil {
				return nil, err
			}
			result.Name = name
			result.ClientName = name.Canonical()
		case classifier.FieldCaseID:
			value, err := distinctValue(rule.Name, raw, normalizeCaseID)
			if err != nil {
				return nil, err
			}
			result.CaseID = value
		default:
			value, err := distinctValue(rule.Name, raw, func(s string) (string, bool) {
				s = strings.TrimSpace(s)
				return s, s != ""
			})
			if err != nil {
				return nil, err
			}
			result.Qualifiers[rule.Name] = value
		}
	}

	for _, name := range sig.RequiredFields() {
		switch name {
		case classifier.FieldCaseID:
			if result.CaseID == "" {
				return nil, missing(name, "required field not produced")
			}
		case classifier.FieldClientName:
			if result.ClientName == "" {
				return nil, missing(name, "required field not produced")
			}
		}
	}

	result.Label = sig.RenderLabel(result.Qualifiers)
	return result, nil
}

// firstMatchingPattern returns the group-1 captures of the first pattern that
// matches at all.
func firstMatchingPattern(text string, patterns []*regexp.Regexp) []string {
	for _, re := range patterns {
		matches := re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		values := make([]string, 0, len(matches))
		for _, m := range matches {
			if len(m) > 1 {
				values = append(values, m[1])
			}
		}
		if len(values) > 0 {
			return values
		}
	}
	return nil
}

func distinctValue(field string, raw []string, normalize func(string) (string, bool)) (string, error) {
	var distinct []string
	for _, r := range raw {
		value, ok := normalize(r)
		if !ok {
			continue
		}
		if !contains(distinct, value) {
			distinct = append(distinct, value)
		}
	}
	switch len(distinct) {
	case 0:
		return "", missing(field, "matched text did not normalize")
	case 1:
		return distinct[0], nil
	default:
		return "", ambiguous(field, distinct)
	}
}

func distinctName(raw []string) (PersonName, error) {
	var names []PersonName
	var canonical []string
	for _, r := range raw {
		name, ok := ParseName(r)
		if !ok {
			continue
		}
		c := name.Canonical()
		if containsFold(canonical, c) {
			continue
		}
		names = append(names, name)
		canonical = append(canonical, c)
	}
	switch len(names) {
	case 0:
		return PersonName{}, missing(classifier.FieldClientName, "name has fewer than two parts or an unparseable shape")
	case 1:
		return names[0], nil
	default:
		return PersonName{}, ambiguous(classifier.FieldClientName, canonical)
	}
}

func normalizeCaseID(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return value, true
}

func normalizeQualifier(field, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	switch field {
	case classifier.FieldAmount:
		return "$" + raw + "k", true
	case classifier.FieldPercentage:
		return raw + "%", true
	case classifier.FieldCondition:
		return strings.ToUpper(raw), true
	case classifier.FieldDoctor:
		return strings.Join(strings.Fields(raw), " "), true
	default:
		return raw, true
	}
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, existing := range values {
		if strings.EqualFold(existing, v) {
			return true
		}
	}
	return false
}
