package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/RabowNicholas/swna-automation/internal/audit"
	"github.com/RabowNicholas/swna-automation/internal/classifier"
	"github.com/RabowNicholas/swna-automation/internal/destination"
	"github.com/RabowNicholas/swna-automation/internal/extractor"
	"github.com/RabowNicholas/swna-automation/internal/fileutil"
	"github.com/RabowNicholas/swna-automation/internal/keylock"
	"github.com/RabowNicholas/swna-automation/internal/ledger"
	"github.com/RabowNicholas/swna-automation/internal/logging"
	"github.com/RabowNicholas/swna-automation/internal/notifications"
	"github.com/RabowNicholas/swna-automation/internal/pdftext"
	"github.com/RabowNicholas/swna-automation/internal/registry"
	"github.com/RabowNicholas/swna-automation/internal/resolver"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

const (
	defaultRegistryTimeout   = 30 * time.Second
	defaultFilesystemTimeout = 15 * time.Second
	defaultLockTimeout       = 2 * time.Minute
)

// TextSource turns a PDF into normalized text.
type TextSource interface {
	Extract(ctx context.Context, path string) (pdftext.Document, error)
}

// Recorder persists terminal outcomes.
type Recorder interface {
	Record(ctx context.Context, entry ledger.Entry) (int64, error)
}

// MoveFunc moves src to dst and must fail rather than replace dst.
type MoveFunc func(src, dst string) error

// Options wires an Orchestrator. Text, Classifier, Registry and Validator are
// required; everything else has a usable default.
type Options struct {
	Text       TextSource
	Classifier *classifier.Classifier
	Registry   registry.Client
	Validator  *destination.Validator
	Locks      *keylock.Locker
	Sink       audit.Sink
	Ledger     Recorder
	Notifier   notifications.Service
	Logger     *slog.Logger

	SessionID         string
	RegistryTimeout   time.Duration
	FilesystemTimeout time.Duration
	LockTimeout       time.Duration
	LogEntrySuffix    string
	Workers           int

	Move MoveFunc
	Now  func() time.Time
}

// Orchestrator processes documents to a terminal outcome.
type Orchestrator struct {
	text       TextSource
	classifier *classifier.Classifier
	registry   registry.Client
	resolver   *resolver.Resolver
	validator  *destination.Validator
	locks      *keylock.Locker
	sink       audit.Sink
	ledger     Recorder
	notifier   notifications.Service
	logger     *slog.Logger

	sessionID         string
	registryTimeout   time.Duration
	filesystemTimeout time.Duration
	lockTimeout       time.Duration
	logSuffix         string
	workers           int

	move MoveFunc
	now  func() time.Time
}

// New validates opts and returns an orchestrator.
func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Text == nil:
		return nil, errors.New("pipeline: text source is required")
	case opts.Classifier == nil:
		return nil, errors.New("pipeline: classifier is required")
	case opts.Registry == nil:
		return nil, errors.New("pipeline: registry client is required")
	case opts.Validator == nil:
		return nil, errors.New("pipeline: destination validator is required")
	}
	o := &Orchestrator{
		text:              opts.Text,
		classifier:        opts.Classifier,
		registry:          opts.Registry,
		resolver:          resolver.New(opts.Registry),
		validator:         opts.Validator,
		locks:             opts.Locks,
		sink:              opts.Sink,
		ledger:            opts.Ledger,
		notifier:          opts.Notifier,
		logger:            logging.NewComponentLogger(opts.Logger, "pipeline"),
		sessionID:         opts.SessionID,
		registryTimeout:   positive(opts.RegistryTimeout, defaultRegistryTimeout),
		filesystemTimeout: positive(opts.FilesystemTimeout, defaultFilesystemTimeout),
		lockTimeout:       positive(opts.LockTimeout, defaultLockTimeout),
		logSuffix:         opts.LogEntrySuffix,
		workers:           max(opts.Workers, 1),
		move:              opts.Move,
		now:               opts.Now,
	}
	if o.locks == nil {
		o.locks = keylock.New("")
	}
	if o.sink == nil {
		o.sink = audit.Discard
	}
	if o.notifier == nil {
		o.notifier = notifications.NewService(nil)
	}
	if o.move == nil {
		o.move = fileutil.MoveNoReplace
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

func positive(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Process drives doc to exactly one terminal outcome. It ignores
// cancellation of ctx: once a document has started it runs to completion,
// bounded by the configured timeouts.
func (o *Orchestrator) Process(ctx context.Context, doc Document) Outcome {
	ctx = services.WithDocumentID(context.WithoutCancel(ctx), doc.ID)
	if o.sessionID != "" {
		ctx = services.WithSessionID(ctx, o.sessionID)
	}
	r := &docRun{
		o:       o,
		ctx:     ctx,
		started: o.now(),
		outcome: Outcome{Document: doc, State: StateReceived},
	}
	r.emit(audit.Event{
		Action: audit.ActionDocumentReceived,
		Stage:  services.StageRead,
		Payload: map[string]any{
			"source": doc.Path,
			"sha256": doc.SHA256,
			"size":   doc.Size,
		},
	})
	r.run()
	r.outcome.Duration = o.now().Sub(r.started)
	o.finish(ctx, &r.outcome)
	return r.outcome
}

// docRun carries one document through the stages.
type docRun struct {
	o       *Orchestrator
	ctx     context.Context
	started time.Time
	outcome Outcome

	text      pdftext.Document
	signature classifier.Signature
	fields    *extractor.Result
	record    registry.Record
	dest      destination.Destination
	day       time.Time
}

func (r *docRun) run() {
	steps := []func() bool{r.read, r.classify, r.extract, r.resolve, r.validate, r.commit}
	for _, step := range steps {
		if !step() {
			return
		}
	}
}

func (r *docRun) stageCtx(stage string) context.Context {
	return services.WithStage(r.ctx, stage)
}

func (r *docRun) read() bool {
	ctx := r.stageCtx(services.StageRead)
	doc, err := r.o.text.Extract(ctx, r.outcome.Document.Path)
	if err != nil {
		if !errors.Is(err, services.ErrExtractionUnreadable) && !errors.Is(err, services.ErrTimeout) {
			err = services.Wrap(services.ErrExtractionUnreadable, services.StageRead, "extract text", r.outcome.Document.Path, err)
		}
		return r.fail(services.StageRead, err)
	}
	r.text = doc
	return true
}

func (r *docRun) classify() bool {
	ctx := r.stageCtx(services.StageClassify)
	res := r.o.classifier.Classify(r.text.Text)

	payload := map[string]any{
		"status":     string(res.Status),
		"confidence": res.Confidence,
		"threshold":  r.o.classifier.Threshold(),
		"pages":      r.text.Pages,
		"ocr":        r.text.OCR,
	}
	if res.TypeID != "" {
		payload["type_id"] = res.TypeID
		payload["label"] = res.Label
	}
	if len(res.Tied) > 0 {
		payload["tied"] = res.Tied
	}
	if top := topCandidates(res.Candidates, 3); len(top) > 0 {
		payload["candidates"] = top
	}
	r.emit(audit.Event{Action: audit.ActionClassified, Stage: services.StageClassify, Payload: payload})

	logger := logging.WithContext(ctx, r.o.logger)
	logger.Debug("classification decision",
		logging.Args(logging.Decision("classification", string(res.Status), res.TypeID, res.Confidence)...)...,
	)

	r.outcome.Confidence = res.Confidence
	switch res.Status {
	case classifier.StatusAmbiguous:
		r.outcome.Candidates = res.Tied
		return r.fail(services.StageClassify, services.Wrap(services.ErrClassificationAmbiguous, services.StageClassify, "score",
			fmt.Sprintf("%d signatures tied at %.2f", len(res.Tied), res.Confidence), nil))
	case classifier.StatusClassified:
	default:
		r.ignore(services.StageClassify, ReasonUnknown)
		return false
	}

	sig, ok := r.o.classifier.Table().Lookup(res.TypeID)
	if !ok {
		return r.fail(services.StageClassify, fmt.Errorf("signature %q missing from table", res.TypeID))
	}
	r.signature = sig
	r.outcome.State = StateClassified
	r.outcome.TypeID = res.TypeID
	r.outcome.Label = res.Label
	return true
}

func topCandidates(matches []classifier.Match, n int) []map[string]any {
	out := make([]map[string]any, 0, min(n, len(matches)))
	for _, m := range matches {
		if len(out) == n {
			break
		}
		out = append(out, map[string]any{"type_id": m.TypeID, "score": m.Score})
	}
	return out
}

func (r *docRun) extract() bool {
	res, err := extractor.Extract(r.text.Text, r.signature)
	if err != nil {
		var fieldErr *extractor.FieldError
		if errors.As(err, &fieldErr) {
			r.outcome.Candidates = fieldErr.Candidates
		}
		return r.fail(services.StageExtract, err)
	}
	r.fields = res
	r.outcome.State = StateExtracted
	r.outcome.Label = res.Label
	r.outcome.CaseID = res.CaseID
	r.outcome.ClientName = res.ClientName

	payload := map[string]any{
		"case_id":     res.CaseID,
		"client_name": res.ClientName,
		"label":       res.Label,
	}
	if len(res.Qualifiers) > 0 {
		payload["qualifiers"] = res.Qualifiers
	}
	r.emit(audit.Event{Action: audit.ActionFieldsExtracted, Stage: services.StageExtract, Payload: payload})
	return true
}

func (r *docRun) resolve() bool {
	ctx, cancel := context.WithTimeout(r.stageCtx(services.StageResolve), r.o.registryTimeout)
	defer cancel()

	rec, err := r.o.resolver.Resolve(ctx, r.fields.ClientName)
	if err != nil {
		var ambErr *resolver.AmbiguousError
		if errors.As(err, &ambErr) {
			r.outcome.Candidates = ambErr.CandidateNames()
		}
		return r.fail(services.StageResolve, timeoutAware(ctx, services.StageResolve, "find record", err))
	}
	r.record = rec
	r.outcome.State = StateResolved
	r.outcome.RecordID = rec.ID
	r.emit(audit.Event{
		Action: audit.ActionClientResolved,
		Stage:  services.StageResolve,
		Payload: map[string]any{
			"record_id":    rec.ID,
			"display_name": rec.DisplayName,
			"case_id":      rec.CaseID,
		},
	})
	return true
}

func (r *docRun) validate() bool {
	ctx, cancel := context.WithTimeout(r.stageCtx(services.StageValidate), r.o.filesystemTimeout)
	defer cancel()

	r.day = r.o.now()
	dest, err := r.o.validator.Validate(ctx, r.record, r.outcome.Label, r.day)
	if err != nil {
		return r.fail(services.StageValidate, timeoutAware(ctx, services.StageValidate, "check destination", err))
	}
	r.dest = dest
	r.outcome.State = StateValidated
	r.outcome.Destination = dest.Path
	r.emit(audit.Event{
		Action: audit.ActionDestinationChecked,
		Stage:  services.StageValidate,
		Payload: map[string]any{
			"folder":    dest.Folder,
			"file_name": dest.FileName,
		},
	})
	return true
}

func (r *docRun) fail(stage string, err error) bool {
	r.outcome.Kind = KindFailed
	r.outcome.State = StateFailed
	r.outcome.Stage = stage
	r.outcome.Err = err
	r.outcome.Reason = services.Code(err)
	return false
}

func (r *docRun) ignore(stage, reason string) {
	r.outcome.Kind = KindIgnored
	r.outcome.State = StateIgnored
	r.outcome.Stage = stage
	r.outcome.Reason = reason
}

// emit writes one audit event for the current document. Sink failures are
// logged and do not change the outcome.
func (r *docRun) emit(event audit.Event) {
	event.DocumentID = r.outcome.Document.ID
	event.SessionID = r.o.sessionID
	if event.Level == "" {
		event.Level = audit.LevelInfo
	}
	if err := r.o.sink.Emit(r.ctx, event); err != nil {
		logging.WarnWithContext(logging.WithContext(r.ctx, r.o.logger), "audit event not written", "audit_write_failed",
			logging.String("action", event.Action),
			logging.Error(err),
			logging.String(logging.FieldImpact, "audit trail is missing this event"),
		)
	}
}

// timeoutAware tags deadline errors that reached the orchestrator without a
// taxonomy marker as timeouts.
func timeoutAware(ctx context.Context, stage, operation string, err error) error {
	if err == nil || errors.Is(err, services.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, stage, operation, "deadline exceeded", err)
	}
	return err
}
