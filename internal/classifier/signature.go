package classifier

import (
	"regexp"
	"strings"
)

// Field names produced by extraction rules.
const (
	FieldCaseID     = "case_id"
	FieldClientName = "client_name"
	FieldAmount     = "amount"
	FieldPercentage = "percentage"
	FieldDoctor     = "doctor"
	FieldCondition  = "condition"
)

// FieldRule locates one field in line-preserving document text. Patterns are
// tried in order and the first pattern with any match decides the candidates;
// capture group 1 holds the value.
type FieldRule struct {
	Name     string
	Required bool
	Patterns []*regexp.Regexp
}

// Signature identifies one letter type.
type Signature struct {
	TypeID        string
	Label         string
	Anchors       []Anchor
	Disqualifiers []Matcher
	Fields        []FieldRule
	// LabelTemplate may reference optional fields as {amount}, {doctor}, ...
	// When any referenced field is missing LabelFallback is used.
	LabelTemplate string
	LabelFallback string
}

// Match is the scoring detail for one signature.
type Match struct {
	TypeID         string   `json:"type_id"`
	Label          string   `json:"label"`
	Score          float64  `json:"score"`
	Matched        int      `json:"matched"`
	Total          int      `json:"total"`
	MatchedAnchors []string `json:"matched_anchors,omitempty"`
	Disqualifier   string   `json:"disqualifier,omitempty"`
}

// Score evaluates the signature against matching-form text. All anchors with
// no disqualifier score 1.0; a partial match scores the fraction of anchors
// found, clipped to ceiling; any disqualifier scores 0.
func (s Signature) Score(text string, ceiling float64) Match {
	m := Match{TypeID: s.TypeID, Label: s.Label, Total: len(s.Anchors)}
	for _, dq := range s.Disqualifiers {
		if dq.Match(text) {
			m.Disqualifier = dq.String()
			return m
		}
	}
	for _, anchor := range s.Anchors {
		if alt, ok := anchor.Matches(text); ok {
			m.Matched++
			m.MatchedAnchors = append(m.MatchedAnchors, alt.String())
		}
	}
	switch {
	case m.Total == 0 || m.Matched == 0:
		m.Score = 0
	case m.Matched == m.Total:
		m.Score = 1
	default:
		m.Score = min(float64(m.Matched)/float64(m.Total), ceiling)
	}
	return m
}

// RequiredFields lists the names of fields extraction must produce.
func (s Signature) RequiredFields() []string {
	var names []string
	for _, rule := range s.Fields {
		if rule.Required {
			names = append(names, rule.Name)
		}
	}
	return names
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// RenderLabel fills the label template from optional field values.
func (s Signature) RenderLabel(values map[string]string) string {
	if s.LabelTemplate == "" {
		return s.Label
	}
	complete := true
	rendered := placeholderPattern.ReplaceAllStringFunc(s.LabelTemplate, func(token string) string {
		key := placeholderPattern.FindStringSubmatch(token)[1]
		value := strings.TrimSpace(values[key])
		if value == "" {
			complete = false
		}
		return value
	})
	if !complete {
		if s.LabelFallback != "" {
			return s.LabelFallback
		}
		return s.Label
	}
	return rendered
}
