package destination_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RabowNicholas/swna-automation/internal/destination"
	"github.com/RabowNicholas/swna-automation/internal/registry"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

var day = time.Date(2025, 7, 31, 9, 0, 0, 0, time.Local)

func TestFileName(t *testing.T) {
	got := destination.FileName("AR Ack", "test", "Client", day)
	if got != "AR Ack - T. Client 07.31.25.pdf" {
		t.Fatalf("unexpected filename %q", got)
	}
	if !destination.IsCanonicalName(got) {
		t.Fatalf("expected %q to be canonical", got)
	}
	if destination.IsCanonicalName("scan_0001.pdf") {
		t.Fatal("raw scan name should not be canonical")
	}
}

func setupClient(t *testing.T, displayName string) (string, *destination.Validator) {
	t.Helper()
	root := t.TempDir()
	folder := filepath.Join(root, registry.StripDisambiguators(displayName), "DOL Letters")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	return folder, destination.New(root, "DOL Letters")
}

func TestValidateSuccess(t *testing.T) {
	folder, v := setupClient(t, "Smith, John (B)")
	dest, err := v.Validate(context.Background(), registry.Record{DisplayName: "Smith, John (B)"}, "AR Ack", day)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if dest.Folder != folder {
		t.Fatalf("folder = %q, want %q", dest.Folder, folder)
	}
	if dest.Path != filepath.Join(folder, "AR Ack - J. Smith 07.31.25.pdf") {
		t.Fatalf("unexpected path %q", dest.Path)
	}
}

func TestValidateFolderMissing(t *testing.T) {
	root := t.TempDir()
	v := destination.New(root, "DOL Letters")
	_, err := v.Validate(context.Background(), registry.Record{DisplayName: "Smith, John"}, "AR Ack", day)
	if !errors.Is(err, services.ErrFolderMissing) {
		t.Fatalf("expected folder missing, got %v", err)
	}
	if entries, _ := os.ReadDir(root); len(entries) != 0 {
		t.Fatal("validator must not create folders")
	}
}

func TestValidateCollision(t *testing.T) {
	folder, v := setupClient(t, "Smith, John")
	existing := filepath.Join(folder, "AR Ack - J. Smith 07.31.25.pdf")
	if err := os.WriteFile(existing, []byte("filed"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := v.Validate(context.Background(), registry.Record{DisplayName: "Smith, John"}, "AR Ack", day)
	if !errors.Is(err, services.ErrFileCollision) {
		t.Fatalf("expected file collision, got %v", err)
	}
}

func TestValidateRejectsUnsplittableName(t *testing.T) {
	_, v := setupClient(t, "Cher")
	_, err := v.Validate(context.Background(), registry.Record{DisplayName: "Cher"}, "AR Ack", day)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
