package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/RabowNicholas/swna-automation/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AIRTABLE_PAT", "AIRTABLE_BASE_ID", "SYNC_FOLDER_PATH", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("AIRTABLE_PAT", "pat-test")
	t.Setenv("AIRTABLE_BASE_ID", "appBase")
	t.Setenv("SYNC_FOLDER_PATH", "~/Dropbox/SWNA")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "swna", "state")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.ClientsRoot != filepath.Join(tempHome, "Dropbox", "SWNA") {
		t.Fatalf("unexpected clients root: %q", cfg.Paths.ClientsRoot)
	}
	if cfg.Registry.APIKey != "pat-test" {
		t.Fatalf("expected api key from env, got %q", cfg.Registry.APIKey)
	}
	if cfg.Registry.BaseID != "appBase" {
		t.Fatalf("expected base id from env, got %q", cfg.Registry.BaseID)
	}
	if cfg.Classifier.AcceptanceThreshold != 0.9 {
		t.Fatalf("unexpected threshold: %v", cfg.Classifier.AcceptanceThreshold)
	}
	if cfg.Classifier.PartialCeiling != 0.75 {
		t.Fatalf("unexpected partial ceiling: %v", cfg.Classifier.PartialCeiling)
	}
	if cfg.Pipeline.Workers != 1 {
		t.Fatalf("expected sequential default, got %d workers", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.LogEntrySuffix != "AI" {
		t.Fatalf("unexpected log entry suffix: %q", cfg.Pipeline.LogEntrySuffix)
	}
	if got := cfg.ActiveClientsDir(); got != filepath.Join(tempHome, "Dropbox", "SWNA", "2. Active Clients") {
		t.Fatalf("unexpected active clients dir: %q", got)
	}
	if err := cfg.ValidateForCommit(); err != nil {
		t.Fatalf("ValidateForCommit returned error: %v", err)
	}
}

func TestValidateForCommitRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	err = cfg.ValidateForCommit()
	if err == nil || !strings.Contains(err.Error(), "paths.clients_root") {
		t.Fatalf("expected clients_root error, got %v", err)
	}

	cfg.Paths.ClientsRoot = t.TempDir()
	err = cfg.ValidateForCommit()
	if err == nil || !strings.Contains(err.Error(), "registry.api_key") {
		t.Fatalf("expected api_key error, got %v", err)
	}

	cfg.Registry.APIKey = "pat"
	err = cfg.ValidateForCommit()
	if err == nil || !strings.Contains(err.Error(), "registry.base_id") {
		t.Fatalf("expected base_id error, got %v", err)
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "swna.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"inbox_dir":    "~/scans",
			"clients_root": "~/clients",
			"state_dir":    "~/state",
		},
		"registry": map[string]any{
			"api_key": "pat-file",
			"base_id": "appFile",
			"table":   "People",
		},
		"classifier": map[string]any{
			"acceptance_threshold": 0.95,
		},
		"pipeline": map[string]any{
			"workers": 4,
		},
		"logging": map[string]any{
			"format": "JSON",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.InboxDir != filepath.Join(tempHome, "scans") {
		t.Fatalf("unexpected inbox dir: %q", cfg.Paths.InboxDir)
	}
	if cfg.Registry.Table != "People" {
		t.Fatalf("unexpected table: %q", cfg.Registry.Table)
	}
	if cfg.Registry.NameField != "Name" {
		t.Fatalf("expected default name field to survive, got %q", cfg.Registry.NameField)
	}
	if cfg.Classifier.AcceptanceThreshold != 0.95 {
		t.Fatalf("unexpected threshold: %v", cfg.Classifier.AcceptanceThreshold)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Fatalf("unexpected workers: %d", cfg.Pipeline.Workers)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	if cfg.LedgerPath() != filepath.Join(tempHome, "state", "ledger.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nstaging_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateRejectsBadClassifierSettings(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantKey string
	}{
		{"threshold zero", func(c *config.Config) { c.Classifier.AcceptanceThreshold = 0 }, "classifier.acceptance_threshold"},
		{"threshold above one", func(c *config.Config) { c.Classifier.AcceptanceThreshold = 1.5 }, "classifier.acceptance_threshold"},
		{"ceiling at one", func(c *config.Config) { c.Classifier.PartialCeiling = 1 }, "classifier.partial_ceiling"},
		{"registry timeout", func(c *config.Config) { c.Registry.TimeoutSeconds = 0 }, "registry.timeout_seconds"},
		{"burst", func(c *config.Config) { c.Registry.Burst = 0 }, "registry.burst"},
		{"letters subdir escape", func(c *config.Config) { c.Paths.LettersSubdir = "../x" }, "paths.letters_subdir"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantKey) {
				t.Fatalf("expected %s error, got %v", tc.wantKey, err)
			}
		})
	}
}

func TestLogLevelEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Paths.LettersSubdir != "DOL Letters" {
		t.Fatalf("unexpected letters subdir: %q", cfg.Paths.LettersSubdir)
	}
}

func TestEnsureDirectoriesSkipsClientTree(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.InboxDir = filepath.Join(base, "inbox")
	cfg.Paths.ClientsRoot = filepath.Join(base, "clients")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir, cfg.AuditDir(), cfg.Paths.InboxDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
	if _, err := os.Stat(cfg.Paths.ClientsRoot); !os.IsNotExist(err) {
		t.Fatalf("expected clients root to remain absent, got %v", err)
	}
}
