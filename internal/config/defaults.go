package config

const (
	defaultConfigPath               = "~/.config/swna/config.toml"
	defaultInboxDir                 = "~/swna/inbox"
	defaultClientsSubdir            = "2. Active Clients"
	defaultLettersSubdir            = "DOL Letters"
	defaultLogDir                   = "~/.local/share/swna/logs"
	defaultStateDir                 = "~/.local/share/swna/state"
	defaultLogRetentionDays         = 60
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultRegistryBaseURL          = "https://api.airtable.com/v0"
	defaultRegistryTable            = "Clients"
	defaultRegistryNameField        = "Name"
	defaultRegistryCaseIDField      = "Case ID"
	defaultRegistryLogField         = "Log"
	defaultRegistryRequestsPerSec   = 4.0
	defaultRegistryBurst            = 4
	defaultRegistryTimeoutSeconds   = 15
	defaultAcceptanceThreshold      = 0.9
	defaultPartialCeiling           = 0.75
	defaultPipelineWorkers          = 1
	defaultFilesystemTimeoutSeconds = 30
	defaultLogEntrySuffix           = "AI"
	defaultPdftotextBinary          = "pdftotext"
	defaultPdftoppmBinary           = "pdftoppm"
	defaultTesseractBinary          = "tesseract"
	defaultOCRDPI                   = 300
	defaultExtractionTimeoutSeconds = 120
	defaultWatchDebounceMillis      = 2000
	defaultNotifyRequestTimeout     = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:      defaultInboxDir,
			ClientsSubdir: defaultClientsSubdir,
			LettersSubdir: defaultLettersSubdir,
			LogDir:        defaultLogDir,
			StateDir:      defaultStateDir,
		},
		Registry: Registry{
			BaseURL:           defaultRegistryBaseURL,
			Table:             defaultRegistryTable,
			NameField:         defaultRegistryNameField,
			CaseIDField:       defaultRegistryCaseIDField,
			LogField:          defaultRegistryLogField,
			RequestsPerSecond: defaultRegistryRequestsPerSec,
			Burst:             defaultRegistryBurst,
			TimeoutSeconds:    defaultRegistryTimeoutSeconds,
		},
		Classifier: Classifier{
			AcceptanceThreshold: defaultAcceptanceThreshold,
			PartialCeiling:      defaultPartialCeiling,
		},
		Pipeline: Pipeline{
			Workers:                  defaultPipelineWorkers,
			FilesystemTimeoutSeconds: defaultFilesystemTimeoutSeconds,
			LogEntrySuffix:           defaultLogEntrySuffix,
		},
		Extraction: Extraction{
			PdftotextBinary: defaultPdftotextBinary,
			PdftoppmBinary:  defaultPdftoppmBinary,
			TesseractBinary: defaultTesseractBinary,
			OCRDPI:          defaultOCRDPI,
			TimeoutSeconds:  defaultExtractionTimeoutSeconds,
		},
		Watch: Watch{
			DebounceMillis: defaultWatchDebounceMillis,
			InitialScan:    true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Inconsistent:   true,
			Failures:       true,
			RunSummary:     true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
