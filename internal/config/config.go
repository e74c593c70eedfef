package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the inbox, client tree and state directories.
type Paths struct {
	InboxDir      string `toml:"inbox_dir"`
	ClientsRoot   string `toml:"clients_root"`
	ClientsSubdir string `toml:"clients_subdir"`
	LettersSubdir string `toml:"letters_subdir"`
	LogDir        string `toml:"log_dir"`
	StateDir      string `toml:"state_dir"`
}

// Registry contains connection and field mapping settings for the client registry.
type Registry struct {
	BaseURL           string  `toml:"base_url"`
	BaseID            string  `toml:"base_id"`
	Table             string  `toml:"table"`
	APIKey            string  `toml:"api_key"`
	NameField         string  `toml:"name_field"`
	CaseIDField       string  `toml:"case_id_field"`
	LogField          string  `toml:"log_field"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Classifier contains scoring thresholds.
type Classifier struct {
	// AcceptanceThreshold is the minimum confidence a signature needs before a
	// document is treated as classified. Default: 0.9
	AcceptanceThreshold float64 `toml:"acceptance_threshold"`
	// PartialCeiling caps the score of a signature that matched only some of
	// its anchors. Must stay below 1.0. Default: 0.75
	PartialCeiling float64 `toml:"partial_ceiling"`
}

// Pipeline contains orchestrator settings.
type Pipeline struct {
	Workers                  int    `toml:"workers"`
	FilesystemTimeoutSeconds int    `toml:"filesystem_timeout_seconds"`
	LogEntrySuffix           string `toml:"log_entry_suffix"`
}

// Extraction contains settings for the PDF-to-text collaborator.
type Extraction struct {
	PdftotextBinary string `toml:"pdftotext_binary"`
	OCRFallback     bool   `toml:"ocr_fallback"`
	PdftoppmBinary  string `toml:"pdftoppm_binary"`
	TesseractBinary string `toml:"tesseract_binary"`
	OCRDPI          int    `toml:"ocr_dpi"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Watch contains settings for inbox watching.
type Watch struct {
	DebounceMillis int  `toml:"debounce_ms"`
	InitialScan    bool `toml:"initial_scan"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Inconsistent   bool   `toml:"inconsistent"`
	Failures       bool   `toml:"failures"`
	RunSummary     bool   `toml:"run_summary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for swna.
//
// Configuration sections by subsystem:
//   - Paths: inbox, client folder tree, logs and state
//   - Registry: client registry connection and field names
//   - Classifier: acceptance threshold and partial-credit ceiling
//   - Pipeline: worker count, filesystem timeout, registry log entry suffix
//   - Extraction: pdftotext / OCR fallback binaries
//   - Watch: inbox watcher debounce
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Registry      Registry      `toml:"registry"`
	Classifier    Classifier    `toml:"classifier"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Extraction    Extraction    `toml:"extraction"`
	Watch         Watch         `toml:"watch"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("swna.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories swna owns. The client tree is
// never created here: a missing client folder is a processing failure.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir, c.AuditDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.InboxDir) != "" {
		if err := os.MkdirAll(c.Paths.InboxDir, 0o755); err != nil {
			return fmt.Errorf("create inbox directory %q: %w", c.Paths.InboxDir, err)
		}
	}
	return nil
}

// ActiveClientsDir returns the directory holding one folder per client.
func (c *Config) ActiveClientsDir() string {
	return filepath.Join(c.Paths.ClientsRoot, c.Paths.ClientsSubdir)
}

// AuditDir returns the directory that receives per-session audit files.
func (c *Config) AuditDir() string {
	return filepath.Join(c.Paths.LogDir, "audit")
}

// LedgerPath returns the sqlite ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LockPath returns the single-instance session lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "swna.lock")
}

// ClientLockDir returns the directory for cross-process per-client lock files.
func (c *Config) ClientLockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// RegistryTimeout bounds a single registry call.
func (c *Config) RegistryTimeout() time.Duration {
	return time.Duration(c.Registry.TimeoutSeconds) * time.Second
}

// FilesystemTimeout bounds a single filesystem operation.
func (c *Config) FilesystemTimeout() time.Duration {
	return time.Duration(c.Pipeline.FilesystemTimeoutSeconds) * time.Second
}

// ExtractionTimeout bounds text extraction for one document.
func (c *Config) ExtractionTimeout() time.Duration {
	return time.Duration(c.Extraction.TimeoutSeconds) * time.Second
}

// WatchDebounce returns the inbox watcher debounce window.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMillis) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
