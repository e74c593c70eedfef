package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/RabowNicholas/swna-automation/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrFilesystem, "commit", "move", "rename failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrFilesystem) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"commit", "move", "rename failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrClientNotFound, "resolve", "", "Smith, John", nil), "client_not_found"},
		{services.Wrap(services.ErrFileCollision, "validate", "", "", nil), "file_collision"},
		{services.Wrap(services.ErrRegistryAPI, "commit", "update", "", context.DeadlineExceeded), "registry_api_error"},
		{fmt.Errorf("%w: %w", services.ErrRegistryAPI, services.ErrTimeout), "timeout"},
		{errors.New("unexpected"), "internal_error"},
	}
	for _, tc := range tests {
		if got := services.Code(tc.err); got != tc.want {
			t.Fatalf("Code(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if services.Retryable(services.Wrap(services.ErrMissingField, "extract", "", "case_id", nil)) {
		t.Fatal("missing field should not be retryable")
	}
	if !services.Retryable(services.Wrap(services.ErrTimeout, "commit", "", "", nil)) {
		t.Fatal("timeout should be retryable")
	}
}
