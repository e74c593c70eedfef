package classifier

import "regexp"

var (
	caseIDLabelPattern    = regexp.MustCompile(`(?i)(?:Case ID Number|CASE ID|Case ID):\s*(\d+)`)
	caseIDFallbackPattern = regexp.MustCompile(`(?i)case.{0,5}(\d{8})`)
	clientNamePattern     = regexp.MustCompile(`(?i)(?:Employee Name|EMPLOYEE):\s*([^\n\r]+)`)
	amountPattern         = regexp.MustCompile(`(?i)\$(\d{1,3})k\b`)
	percentagePattern     = regexp.MustCompile(`\b(\d{1,3})%`)
	doctorPattern         = regexp.MustCompile(`\b(?:Dr|DR)\.?\s+((?:[A-Z]\.\s+)?[A-Z][A-Za-z'\-]+(?:\s+[A-Z][A-Za-z'\-]+)?)`)
	conditionPattern      = regexp.MustCompile(`(?i)\b(COPD|OSA|BCC|PF|asbestosis|mesothelioma|lung cancer)\b`)
)

// Matching-form equivalents of the qualifier patterns, used as anchors.
const (
	amountAnchor     = `\$\d{1,3}k\b`
	percentageAnchor = `\b\d{1,3}%`
	doctorAnchor     = `(?:^|[^\p{L}])dr\.? [a-z]`
	conditionAnchor  = `\b(?:copd|osa|bcc|pf|asbestosis|mesothelioma|lung cancer)\b`
)

func caseIDRule(withFallback bool) FieldRule {
	rule := FieldRule{Name: FieldCaseID, Required: true, Patterns: []*regexp.Regexp{caseIDLabelPattern}}
	if withFallback {
		rule.Patterns = append(rule.Patterns, caseIDFallbackPattern)
	}
	return rule
}

func clientNameRule() FieldRule {
	return FieldRule{Name: FieldClientName, Required: true, Patterns: []*regexp.Regexp{clientNamePattern}}
}

func optional(name string, re *regexp.Regexp) FieldRule {
	return FieldRule{Name: name, Patterns: []*regexp.Regexp{re}}
}

// standardFields is the rule set shared by every letter: case id with the
// loose fallback, employee name, and the given optional qualifiers.
func standardFields(qualifiers ...string) []FieldRule {
	rules := []FieldRule{caseIDRule(true), clientNameRule()}
	for _, q := range qualifiers {
		switch q {
		case FieldAmount:
			rules = append(rules, optional(FieldAmount, amountPattern))
		case FieldPercentage:
			rules = append(rules, optional(FieldPercentage, percentagePattern))
		case FieldDoctor:
			rules = append(rules, optional(FieldDoctor, doctorPattern))
		case FieldCondition:
			rules = append(rules, optional(FieldCondition, conditionPattern))
		}
	}
	return rules
}
