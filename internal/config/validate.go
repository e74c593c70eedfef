package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateRegistryLimits(); err != nil {
		return err
	}
	return nil
}

// ValidateForCommit checks the settings that only matter when documents are
// actually filed: the client tree and registry credentials.
func (c *Config) ValidateForCommit() error {
	if strings.TrimSpace(c.Paths.ClientsRoot) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("paths.clients_root is required. Set SYNC_FOLDER_PATH env var or edit %s (create with 'swna config init')", defaultPath)
	}
	if c.Registry.APIKey == "" {
		return errors.New("registry.api_key is required. Set AIRTABLE_PAT env var or edit the config file")
	}
	if c.Registry.BaseID == "" {
		return errors.New("registry.base_id is required. Set AIRTABLE_BASE_ID env var or edit the config file")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ClientsSubdir == "" {
		return errors.New("paths.clients_subdir must be set")
	}
	if c.Paths.LettersSubdir == "" {
		return errors.New("paths.letters_subdir must be set")
	}
	for key, value := range map[string]string{
		"paths.clients_subdir": c.Paths.ClientsSubdir,
		"paths.letters_subdir": c.Paths.LettersSubdir,
	} {
		if filepath.IsAbs(value) || strings.Contains(value, "..") {
			return fmt.Errorf("%s must be a relative folder name", key)
		}
	}
	if c.Paths.InboxDir != "" && c.Paths.ClientsRoot != "" && c.Paths.InboxDir == c.Paths.ClientsRoot {
		return errors.New("paths.inbox_dir must differ from paths.clients_root")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	if c.Classifier.AcceptanceThreshold <= 0 || c.Classifier.AcceptanceThreshold > 1 {
		return errors.New("classifier.acceptance_threshold must be in (0, 1]")
	}
	if c.Classifier.PartialCeiling <= 0 || c.Classifier.PartialCeiling >= 1 {
		return errors.New("classifier.partial_ceiling must be in (0, 1)")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"registry.timeout_seconds":            c.Registry.TimeoutSeconds,
		"pipeline.filesystem_timeout_seconds": c.Pipeline.FilesystemTimeoutSeconds,
		"extraction.timeout_seconds":          c.Extraction.TimeoutSeconds,
		"notifications.request_timeout":       c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateRegistryLimits() error {
	if c.Registry.RequestsPerSecond <= 0 {
		return errors.New("registry.requests_per_second must be positive")
	}
	if c.Registry.Burst < 1 {
		return errors.New("registry.burst must be >= 1")
	}
	if c.Watch.DebounceMillis < 0 {
		return errors.New("watch.debounce_ms must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
