package logging

import (
	"log/slog"
	"strings"
)

type infoField struct {
	label string
	value string
}

// infoHighlightKeys are printed first, in this order, when present.
var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldDecisionType,
	"outcome",
	"document_type",
	"confidence",
	"client",
	"case_id",
	"destination",
	FieldErrorCode,
	"error",
	FieldErrorHint,
	FieldImpact,
	"decision_result",
	"decision_subject",
	"decision_candidates",
	"committed",
	"ignored",
	"failed",
	"inconsistent",
	"stage_duration",
	"reason",
}

func selectInfoFields(attrs []kv) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	hidden := 0

	consider := func(idx int) {
		used[idx] = true
		attr := attrs[idx]
		if skipInfoKey(attr.key) {
			return
		}
		if isDebugOnlyKey(attr.key) {
			hidden++
			return
		}
		val := formatValueForKey(attr.key, attr.value)
		if shouldHideInfoValue(attr.key, val) {
			hidden++
			return
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: val})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				consider(idx)
				break
			}
		}
	}
	for idx := range attrs {
		if !used[idx] {
			consider(idx)
		}
	}
	return result, hidden
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case isDurationKey(key) && v.Kind() == slog.KindDuration:
		return formatDurationHuman(v.Duration())
	case key == "confidence" && v.Kind() == slog.KindFloat64:
		return formatScore(v.Float64())
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	value := formatValue(v)
	if key == "error" {
		value = truncateErrorValue(value)
	}
	return value
}

func isDurationKey(key string) bool {
	return strings.HasSuffix(key, "_duration") ||
		strings.HasSuffix(key, "_elapsed") ||
		key == "elapsed" ||
		key == "duration"
}

func truncateErrorValue(value string) string {
	value = strings.TrimSpace(value)
	const maxLen = 200
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldDocumentID, FieldStage, FieldComponent:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case FieldSessionID, "sha256", "record_id", "scores":
		return true
	}
	if strings.Contains(key, "_path") || strings.Contains(key, "_dir") {
		return true
	}
	return false
}

func shouldHideInfoValue(key, value string) bool {
	switch key {
	case "error", "destination", "decision_candidates":
		return false
	}
	return len(value) > 120
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldDecisionType:
		return "Decision"
	case FieldErrorCode:
		return "Error Code"
	case FieldErrorHint:
		return "Hint"
	case "document_type":
		return "Type"
	case "case_id":
		return "Case ID"
	case "decision_result":
		return "Result"
	case "decision_subject":
		return "Subject"
	case "decision_candidates":
		return "Candidates"
	case "stage_duration":
		return "Duration"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}
