package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RabowNicholas/swna-automation/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Registry credentials are placeholders; tests point BaseURL at an httptest
// server when they need one.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InboxDir = filepath.Join(base, "inbox")
	cfgVal.Paths.ClientsRoot = filepath.Join(base, "sync")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Registry.BaseID = "appTEST"
	cfgVal.Registry.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRegistryURL points the registry client at url.
func WithRegistryURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Registry.BaseURL = url
	}
}

// WithWorkers sets the pipeline worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Workers = n
	}
}

// WithClientFolders creates the letters folder for each display name under
// the active clients directory.
func WithClientFolders(displayNames ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range displayNames {
			dir := filepath.Join(b.cfg.ActiveClientsDir(), name, b.cfg.Paths.LettersSubdir)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				b.t.Fatalf("mkdir client folder %s: %v", dir, err)
			}
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the text extraction binaries are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"pdftotext", "pdftoppm", "tesseract"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
