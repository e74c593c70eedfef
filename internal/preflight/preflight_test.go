package preflight_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RabowNicholas/swna-automation/internal/config"
	"github.com/RabowNicholas/swna-automation/internal/preflight"
	"github.com/RabowNicholas/swna-automation/internal/registry"
	"github.com/RabowNicholas/swna-automation/internal/testsupport"
)

type failingRegistry struct {
	registry.Client
	err error
}

func (f failingRegistry) FindByName(context.Context, string) ([]registry.Record, error) {
	return nil, f.err
}

type blockingRegistry struct {
	registry.Client
}

func (blockingRegistry) FindByName(ctx context.Context, _ string) ([]registry.Record, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_Failures(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		path string
	}{
		{name: "missing", path: filepath.Join(t.TempDir(), "nope")},
		{name: "file", path: file},
		{name: "empty", path: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := preflight.CheckDirectoryAccess("test", tt.path)
			if result.Passed {
				t.Fatalf("expected failure for %q", tt.path)
			}
			if result.Detail == "" {
				t.Fatal("expected non-empty detail")
			}
		})
	}
}

func TestCheckDirectories_MissingClientTree(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	failed := preflight.Failed(preflight.CheckDirectories(cfg))
	if len(failed) != 1 || failed[0].Name != "Active clients" {
		t.Fatalf("expected only the client tree to fail, got %+v", failed)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithClientFolders("Smith, John"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if failed := preflight.Failed(preflight.CheckDirectories(cfg)); len(failed) != 0 {
		t.Fatalf("expected all directories to pass, got %+v", failed)
	}
}

func TestCheckRegistry(t *testing.T) {
	ctx := context.Background()
	if r := preflight.CheckRegistry(ctx, registry.NewMemory(), time.Second); !r.Passed {
		t.Fatalf("expected memory registry to pass, got %s", r.Detail)
	}
	r := preflight.CheckRegistry(ctx, failingRegistry{err: errors.New("401 unauthorized")}, time.Second)
	if r.Passed || r.Detail != "401 unauthorized" {
		t.Fatalf("unexpected result %+v", r)
	}
	r = preflight.CheckRegistry(ctx, blockingRegistry{}, 10*time.Millisecond)
	if r.Passed || r.Detail != "lookup timed out (registry unresponsive)" {
		t.Fatalf("unexpected timeout result %+v", r)
	}
}

func TestCheckNotifications(t *testing.T) {
	tests := []struct {
		topic  string
		passed bool
	}{
		{topic: "", passed: true},
		{topic: "https://ntfy.sh/swna", passed: true},
		{topic: "swna", passed: false},
	}
	for _, tt := range tests {
		r := preflight.CheckNotifications(config.Notifications{NtfyTopic: tt.topic})
		if r.Passed != tt.passed {
			t.Fatalf("topic %q: passed=%v detail=%s", tt.topic, r.Passed, r.Detail)
		}
	}
}

func TestRunAll(t *testing.T) {
	if results := preflight.RunAll(context.Background(), nil, nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}

	cfg := testsupport.NewConfig(t, testsupport.WithClientFolders("Doe, Jane"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := preflight.RunAll(context.Background(), cfg, registry.NewMemory())
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	want := []string{"Inbox", "State directory", "Active clients", "Registry", "Notifications"}
	if len(names) != len(want) {
		t.Fatalf("checks = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("checks = %v, want %v", names, want)
		}
	}
}
