package services

import (
	"errors"
	"fmt"
	"strings"
)

// Markers for the document failure taxonomy. Every error that crosses a stage
// boundary wraps exactly one of these so the orchestrator can map it to a
// reason code without string matching.
var (
	ErrClassificationAmbiguous = errors.New("classification ambiguous")
	ErrMissingField            = errors.New("missing field")
	ErrAmbiguousField          = errors.New("ambiguous field")
	ErrClientNotFound          = errors.New("client not found")
	ErrClientAmbiguous         = errors.New("client ambiguous")
	ErrFolderMissing           = errors.New("folder missing")
	ErrFileCollision           = errors.New("file collision")
	ErrRegistryAPI             = errors.New("registry api error")
	ErrFilesystem              = errors.New("filesystem error")
	ErrTimeout                 = errors.New("timeout")
	ErrExtractionUnreadable    = errors.New("extraction unreadable")
	ErrConfiguration           = errors.New("configuration error")
	ErrValidation              = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later outcome classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

var codes = []struct {
	marker error
	code   string
}{
	// Timeout first: a timed-out registry call is wrapped in both markers.
	{ErrTimeout, "timeout"},
	{ErrClassificationAmbiguous, "classification_ambiguous"},
	{ErrMissingField, "missing_field"},
	{ErrAmbiguousField, "ambiguous_field"},
	{ErrClientNotFound, "client_not_found"},
	{ErrClientAmbiguous, "client_ambiguous"},
	{ErrFolderMissing, "folder_missing"},
	{ErrFileCollision, "file_collision"},
	{ErrRegistryAPI, "registry_api_error"},
	{ErrFilesystem, "filesystem_error"},
	{ErrExtractionUnreadable, "extraction_unreadable"},
	{ErrConfiguration, "configuration_error"},
	{ErrValidation, "validation_error"},
}

// Code returns the stable reason code for err. Unclassified errors map to
// "internal_error" and nil maps to "".
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range codes {
		if errors.Is(err, entry.marker) {
			return entry.code
		}
	}
	return "internal_error"
}

// Retryable reports whether a later pass could plausibly succeed without
// operator action. Used for hints only; nothing in the core retries.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRegistryAPI) || errors.Is(err, ErrFilesystem)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "document failure"
	}
	return strings.Join(parts, ": ")
}
