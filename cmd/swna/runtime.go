package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RabowNicholas/swna-automation/internal/classifier"
	"github.com/RabowNicholas/swna-automation/internal/config"
	"github.com/RabowNicholas/swna-automation/internal/deps"
	"github.com/RabowNicholas/swna-automation/internal/destination"
	"github.com/RabowNicholas/swna-automation/internal/keylock"
	"github.com/RabowNicholas/swna-automation/internal/ledger"
	"github.com/RabowNicholas/swna-automation/internal/notifications"
	"github.com/RabowNicholas/swna-automation/internal/pdftext"
	"github.com/RabowNicholas/swna-automation/internal/pipeline"
	"github.com/RabowNicholas/swna-automation/internal/preflight"
	"github.com/RabowNicholas/swna-automation/internal/services/airtable"
	"github.com/RabowNicholas/swna-automation/internal/session"
)

// runtime is everything a filing command needs, opened in dependency order.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	session *session.Session
	ledger  *ledger.Store
	orch    *pipeline.Orchestrator
}

func (c *commandContext) openRuntime(ctx context.Context, command string) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForCommit(); err != nil {
		return nil, err
	}
	if err := checkExtractionDeps(cfg); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	if failed := preflight.Failed(preflight.CheckDirectories(cfg)); len(failed) > 0 {
		return nil, fmt.Errorf("%s not ready: %s", failed[0].Name, failed[0].Detail)
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	registryClient, err := newRegistryClient(cfg)
	if err != nil {
		return nil, err
	}

	sess, err := session.Start(ctx, cfg, session.Options{Logger: logger, Command: command})
	if err != nil {
		return nil, err
	}
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		_ = sess.End(ctx, nil)
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	orch, err := pipeline.New(pipeline.Options{
		Text:              newTextExtractor(cfg),
		Classifier:        newClassifier(cfg),
		Registry:          registryClient,
		Validator:         destination.New(cfg.ActiveClientsDir(), cfg.Paths.LettersSubdir),
		Locks:             keylock.New(cfg.ClientLockDir()),
		Sink:              sess.Sink(),
		Ledger:            store,
		Notifier:          notifications.NewService(cfg),
		Logger:            sess.Logger(),
		SessionID:         sess.ID,
		RegistryTimeout:   cfg.RegistryTimeout(),
		FilesystemTimeout: cfg.FilesystemTimeout(),
		LogEntrySuffix:    cfg.Pipeline.LogEntrySuffix,
		Workers:           cfg.Pipeline.Workers,
	})
	if err != nil {
		_ = store.Close()
		_ = sess.End(ctx, nil)
		return nil, err
	}
	return &runtime{cfg: cfg, logger: sess.Logger(), session: sess, ledger: store, orch: orch}, nil
}

func (r *runtime) close(ctx context.Context, counts map[string]any) error {
	return errors.Join(r.ledger.Close(), r.session.End(ctx, counts))
}

func newRegistryClient(cfg *config.Config) (*airtable.Client, error) {
	return airtable.New(airtable.Config{
		BaseURL: cfg.Registry.BaseURL,
		BaseID:  cfg.Registry.BaseID,
		Table:   cfg.Registry.Table,
		APIKey:  cfg.Registry.APIKey,
		Fields: airtable.Fields{
			Name:   cfg.Registry.NameField,
			CaseID: cfg.Registry.CaseIDField,
			Log:    cfg.Registry.LogField,
		},
		RequestsPerSecond: cfg.Registry.RequestsPerSecond,
		Burst:             cfg.Registry.Burst,
		Timeout:           cfg.RegistryTimeout(),
	})
}

func newTextExtractor(cfg *config.Config) *pdftext.Extractor {
	return pdftext.New(pdftext.Options{
		PdftotextBinary: cfg.Extraction.PdftotextBinary,
		OCRFallback:     cfg.Extraction.OCRFallback,
		PdftoppmBinary:  cfg.Extraction.PdftoppmBinary,
		TesseractBinary: cfg.Extraction.TesseractBinary,
		OCRDPI:          cfg.Extraction.OCRDPI,
		Timeout:         cfg.ExtractionTimeout(),
	})
}

func newClassifier(cfg *config.Config) *classifier.Classifier {
	return classifier.New(classifier.DefaultTable(), classifier.Options{
		Threshold:      cfg.Classifier.AcceptanceThreshold,
		PartialCeiling: cfg.Classifier.PartialCeiling,
	})
}

func checkExtractionDeps(cfg *config.Config) error {
	missing := deps.MissingRequired(deps.CheckBinaries(deps.ExtractionRequirements(cfg.Extraction)))
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for _, m := range missing {
		names = append(names, m.Command)
	}
	return fmt.Errorf("required binaries not found: %s (run `swna deps` for details)", strings.Join(names, ", "))
}
