package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRegistry()
	c.normalizePipeline()
	c.normalizeExtraction()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ClientsRoot) == "" {
		if value, ok := os.LookupEnv("SYNC_FOLDER_PATH"); ok {
			c.Paths.ClientsRoot = strings.TrimSpace(value)
		}
	}
	if c.Paths.ClientsRoot, err = expandPath(c.Paths.ClientsRoot); err != nil {
		return fmt.Errorf("paths.clients_root: %w", err)
	}
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.ClientsSubdir = strings.TrimSpace(c.Paths.ClientsSubdir)
	c.Paths.LettersSubdir = strings.TrimSpace(c.Paths.LettersSubdir)
	return nil
}

func (c *Config) normalizeRegistry() {
	if strings.TrimSpace(c.Registry.APIKey) == "" {
		if value, ok := os.LookupEnv("AIRTABLE_PAT"); ok {
			c.Registry.APIKey = value
		}
	}
	if strings.TrimSpace(c.Registry.BaseID) == "" {
		if value, ok := os.LookupEnv("AIRTABLE_BASE_ID"); ok {
			c.Registry.BaseID = value
		}
	}
	c.Registry.APIKey = strings.TrimSpace(c.Registry.APIKey)
	c.Registry.BaseID = strings.TrimSpace(c.Registry.BaseID)
	c.Registry.BaseURL = strings.TrimRight(strings.TrimSpace(c.Registry.BaseURL), "/")
	if c.Registry.BaseURL == "" {
		c.Registry.BaseURL = defaultRegistryBaseURL
	}
	c.Registry.Table = strings.TrimSpace(c.Registry.Table)
	if c.Registry.Table == "" {
		c.Registry.Table = defaultRegistryTable
	}
	if strings.TrimSpace(c.Registry.NameField) == "" {
		c.Registry.NameField = defaultRegistryNameField
	}
	if strings.TrimSpace(c.Registry.CaseIDField) == "" {
		c.Registry.CaseIDField = defaultRegistryCaseIDField
	}
	if strings.TrimSpace(c.Registry.LogField) == "" {
		c.Registry.LogField = defaultRegistryLogField
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultPipelineWorkers
	}
	c.Pipeline.LogEntrySuffix = strings.TrimSpace(c.Pipeline.LogEntrySuffix)
}

func (c *Config) normalizeExtraction() {
	if strings.TrimSpace(c.Extraction.PdftotextBinary) == "" {
		c.Extraction.PdftotextBinary = defaultPdftotextBinary
	}
	if strings.TrimSpace(c.Extraction.PdftoppmBinary) == "" {
		c.Extraction.PdftoppmBinary = defaultPdftoppmBinary
	}
	if strings.TrimSpace(c.Extraction.TesseractBinary) == "" {
		c.Extraction.TesseractBinary = defaultTesseractBinary
	}
	if c.Extraction.OCRDPI <= 0 {
		c.Extraction.OCRDPI = defaultOCRDPI
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if value, ok := os.LookupEnv("LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
