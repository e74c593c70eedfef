package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RabowNicholas/swna-automation/internal/audit"
	"github.com/RabowNicholas/swna-automation/internal/classifier"
	"github.com/RabowNicholas/swna-automation/internal/config"
	"github.com/RabowNicholas/swna-automation/internal/destination"
	"github.com/RabowNicholas/swna-automation/internal/keylock"
	"github.com/RabowNicholas/swna-automation/internal/ledger"
	"github.com/RabowNicholas/swna-automation/internal/logging"
	"github.com/RabowNicholas/swna-automation/internal/pdftext"
	"github.com/RabowNicholas/swna-automation/internal/pipeline"
	"github.com/RabowNicholas/swna-automation/internal/registry"
	"github.com/RabowNicholas/swna-automation/internal/services"
	"github.com/RabowNicholas/swna-automation/internal/testsupport"
)

const arAckBody = `According to our records, you have been designated as the authorized
representative in the above case. As the authorized representative, you have the
ability to receive correspondence, submit additional evidence, argue factual or
legal issues and exercise claimant rights pertaining to the above claim.`

const remandBody = "REMAND ORDER\nThe file is being returned to the district office."

var fixedNow = time.Date(2025, time.July, 31, 10, 30, 0, 0, time.Local)

func letter(caseID, employee, body string) string {
	var b strings.Builder
	b.WriteString("U.S. Department of Labor\n")
	if caseID != "" {
		b.WriteString("Case ID Number: " + caseID + "\n")
	}
	if employee != "" {
		b.WriteString("Employee Name: " + employee + "\n")
	}
	b.WriteString("\n" + body)
	return b.String()
}

type fakeText struct {
	mu        sync.Mutex
	texts     map[string]string
	err       error
	onExtract func(path string)
}

func (f *fakeText) Extract(_ context.Context, path string) (pdftext.Document, error) {
	f.mu.Lock()
	text, ok := f.texts[filepath.Base(path)]
	hook := f.onExtract
	err := f.err
	f.mu.Unlock()
	if hook != nil {
		hook(path)
	}
	if err != nil {
		return pdftext.Document{}, err
	}
	if !ok {
		return pdftext.Document{}, services.Wrap(services.ErrExtractionUnreadable, services.StageRead, "pdftotext", path, nil)
	}
	return pdftext.Document{Text: text, Pages: 1}, nil
}

type harness struct {
	cfg   *config.Config
	reg   *registry.Memory
	sink  *audit.Memory
	store *ledger.Store
	text  *fakeText
	orch  *pipeline.Orchestrator
}

func newHarness(t *testing.T, mutate func(*pipeline.Options), records ...registry.Record) *harness {
	t.Helper()

	var folders []string
	for _, r := range records {
		folders = append(folders, registry.StripDisambiguators(r.DisplayName))
	}
	cfg := testsupport.NewConfig(t, testsupport.WithClientFolders(folders...))
	if err := os.MkdirAll(cfg.Paths.InboxDir, 0o755); err != nil {
		t.Fatalf("mkdir inbox: %v", err)
	}
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		cfg:   cfg,
		reg:   registry.NewMemory(records...),
		sink:  audit.NewMemory("session-test"),
		store: store,
		text:  &fakeText{texts: map[string]string{}},
	}
	opts := pipeline.Options{
		Text:           h.text,
		Classifier:     classifier.New(nil, classifier.Options{}),
		Registry:       h.reg,
		Validator:      destination.New(cfg.ActiveClientsDir(), cfg.Paths.LettersSubdir),
		Locks:          keylock.New(""),
		Sink:           h.sink,
		Ledger:         store,
		Logger:         logging.NewNop(),
		SessionID:      "session-test",
		LogEntrySuffix: "AI",
		Now:            func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	orch, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	h.orch = orch
	return h
}

// addDocument writes a placeholder PDF into the inbox and registers its text.
func (h *harness) addDocument(t *testing.T, name, text string) string {
	t.Helper()
	path := testsupport.WritePDF(t, h.cfg.Paths.InboxDir, name)
	h.text.mu.Lock()
	h.text.texts[name] = text
	h.text.mu.Unlock()
	return path
}

func (h *harness) lettersDir(displayName string) string {
	return filepath.Join(h.cfg.ActiveClientsDir(), displayName, h.cfg.Paths.LettersSubdir)
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stat %s: %v", path, err)
	}
	return false
}

func TestProcessCommitsARAck(t *testing.T) {
	h := newHarness(t, nil, registry.Record{DisplayName: "Smith, John"})
	src := h.addDocument(t, "scan001.pdf", letter("12345678", "John Smith", arAckBody))

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Kind != pipeline.KindSuccess || out.State != pipeline.StateCommitted {
		t.Fatalf("expected committed success, got %s/%s (%v)", out.Kind, out.State, out.Err)
	}

	want := filepath.Join(h.lettersDir("Smith, John"), "AR Ack - J. Smith 07.31.25.pdf")
	if out.Destination != want {
		t.Fatalf("destination = %q, want %q", out.Destination, want)
	}
	if !exists(t, want) || exists(t, src) {
		t.Fatal("expected file moved from inbox to destination")
	}

	rec, _ := h.reg.Record(out.RecordID)
	if rec.CaseID != "12345678" {
		t.Fatalf("case id = %q", rec.CaseID)
	}
	if rec.Log != "Rcvd AR Ack. Filed Away. 07.31.25 AI" {
		t.Fatalf("log = %q", rec.Log)
	}
	if rec.DisplayName != "Smith, John" {
		t.Fatalf("display name changed to %q", rec.DisplayName)
	}

	wantActions := []string{
		audit.ActionDocumentReceived,
		audit.ActionClassified,
		audit.ActionFieldsExtracted,
		audit.ActionClientResolved,
		audit.ActionDestinationChecked,
		audit.ActionRegistryUpdated,
		audit.ActionFileMoved,
		audit.ActionOutcome,
	}
	if got := h.sink.Actions(out.Document.ID); !reflect.DeepEqual(got, wantActions) {
		t.Fatalf("audit actions = %v, want %v", got, wantActions)
	}

	rows, err := h.store.List(context.Background(), ledger.ListOptions{})
	if err != nil {
		t.Fatalf("ledger list: %v", err)
	}
	if len(rows) != 1 || rows[0].State != "committed" || rows[0].Destination != want {
		t.Fatalf("unexpected ledger rows: %+v", rows)
	}
}

func TestProcessClientNotFound(t *testing.T) {
	h := newHarness(t, nil, registry.Record{DisplayName: "Smithers, Waylon"})
	src := h.addDocument(t, "scan.pdf", letter("12345678", "John Smith", arAckBody))

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Kind != pipeline.KindFailed || out.Stage != services.StageResolve || out.Reason != "client_not_found" {
		t.Fatalf("expected FAILED(resolve, client_not_found), got %s %s %s", out.Kind, out.Stage, out.Reason)
	}
	if !errors.Is(out.Err, services.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", out.Err)
	}
	if n := len(h.reg.Updates()); n != 0 {
		t.Fatalf("expected no registry updates, got %d", n)
	}
	if !exists(t, src) {
		t.Fatal("source must stay in inbox")
	}
}

func TestProcessUnknownIsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	src := h.addDocument(t, "grocery.pdf", "Grocery list: milk, eggs, bread.")

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Kind != pipeline.KindIgnored || out.Reason != pipeline.ReasonUnknown {
		t.Fatalf("expected IGNORED(unknown), got %s %s", out.Kind, out.Reason)
	}
	if out.Confidence >= classifier.DefaultThreshold {
		t.Fatalf("confidence %v should be below threshold", out.Confidence)
	}

	events := h.sink.ForDocument(out.Document.ID)
	last := events[len(events)-1]
	if last.Action != audit.ActionOutcome || last.Outcome != "ignored" || last.Reason != "unknown" {
		t.Fatalf("unexpected terminal event %+v", last)
	}
	if _, ok := last.Payload["confidence"]; !ok {
		t.Fatal("expected confidence recorded on outcome event")
	}
	if !exists(t, src) {
		t.Fatal("ignored document must stay in inbox")
	}
}

func TestProcessFileCollisionLeavesSource(t *testing.T) {
	h := newHarness(t, nil, registry.Record{DisplayName: "Smith, John"})
	src := h.addDocument(t, "scan.pdf", letter("12345678", "John Smith", arAckBody))
	existing := filepath.Join(h.lettersDir("Smith, John"), "AR Ack - J. Smith 07.31.25.pdf")
	testsupport.WriteFile(t, existing, []byte("earlier"))

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Kind != pipeline.KindFailed || out.Reason != "file_collision" || out.Stage != services.StageValidate {
		t.Fatalf("expected FAILED(validate, file_collision), got %s %s %s", out.Kind, out.Stage, out.Reason)
	}
	if !exists(t, src) {
		t.Fatal("source must be untouched")
	}
	if got := string(testsupport.ReadFile(t, existing)); got != "earlier" {
		t.Fatalf("existing destination overwritten: %q", got)
	}
	if n := len(h.reg.Updates()); n != 0 {
		t.Fatalf("expected no registry updates, got %d", n)
	}
}

func TestMoveFailureAfterRegistryUpdateIsInconsistent(t *testing.T) {
	h := newHarness(t, func(o *pipeline.Options) {
		o.Move = func(string, string) error { return errors.New("simulated disk fault") }
	}, registry.Record{DisplayName: "Smith, John"})
	src := h.addDocument(t, "scan.pdf", letter("12345678", "John Smith", arAckBody))

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Kind != pipeline.KindFailed || out.Stage != services.StageCommit {
		t.Fatalf("expected FAILED(commit), got %s %s", out.Kind, out.Stage)
	}
	if !out.Inconsistent || !out.NeedsReconciliation || !out.RegistryUpdated {
		t.Fatalf("expected inconsistent flagged outcome, got %+v", out)
	}
	if out.Reason != "filesystem_error" {
		t.Fatalf("reason = %q", out.Reason)
	}
	if !exists(t, src) {
		t.Fatal("source must stay in place for reconciliation")
	}
	if n := len(h.reg.Updates()); n != 1 {
		t.Fatalf("expected one registry update, got %d", n)
	}

	actions := h.sink.Actions(out.Document.ID)
	tail := actions[len(actions)-3:]
	want := []string{audit.ActionRegistryUpdated, audit.ActionCommitInconsistent, audit.ActionOutcome}
	if !reflect.DeepEqual(tail, want) {
		t.Fatalf("audit tail = %v, want %v", tail, want)
	}
	for _, e := range h.sink.ForDocument(out.Document.ID) {
		if e.Action == audit.ActionCommitInconsistent {
			if e.Level != audit.LevelError || e.Payload["file_moved"] != false || e.Payload["registry_updated"] != true {
				t.Fatalf("unexpected inconsistent event %+v", e)
			}
		}
		if e.Action == audit.ActionFileMoved {
			t.Fatal("file_moved must not be emitted")
		}
	}

	pending, err := h.store.PendingReconciliation(context.Background())
	if err != nil {
		t.Fatalf("PendingReconciliation: %v", err)
	}
	if len(pending) != 1 || !pending[0].Inconsistent {
		t.Fatalf("expected one inconsistent ledger row, got %+v", pending)
	}
}

func TestMoveTimeoutReportsObservedFiles(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	h := newHarness(t, func(o *pipeline.Options) {
		o.FilesystemTimeout = 50 * time.Millisecond
		o.Move = func(string, string) error {
			<-release
			return nil
		}
	}, registry.Record{DisplayName: "Smith, John"})
	src := h.addDocument(t, "scan.pdf", letter("12345678", "John Smith", arAckBody))

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Kind != pipeline.KindFailed || !out.Inconsistent || out.Reason != "timeout" {
		t.Fatalf("expected inconsistent timeout, got %s %q %+v", out.Kind, out.Reason, out)
	}
	var found bool
	for _, e := range h.sink.ForDocument(out.Document.ID) {
		if e.Action != audit.ActionCommitInconsistent {
			continue
		}
		found = true
		if e.Payload["file_moved"] != false || e.Payload["source_present"] != true || e.Payload["destination_present"] != false {
			t.Fatalf("unexpected inconsistent payload %+v", e.Payload)
		}
	}
	if !found {
		t.Fatal("expected commit_inconsistent event")
	}
}

func TestMoveLandingAfterTimeoutCommits(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	h := newHarness(t, func(o *pipeline.Options) {
		o.FilesystemTimeout = 50 * time.Millisecond
		o.Move = func(src, dst string) error {
			if err := os.Rename(src, dst); err != nil {
				return err
			}
			<-release
			return nil
		}
	}, registry.Record{DisplayName: "Smith, John"})
	src := h.addDocument(t, "scan.pdf", letter("12345678", "John Smith", arAckBody))

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Kind != pipeline.KindSuccess || out.Inconsistent {
		t.Fatalf("expected committed success, got %s (%v)", out.Kind, out.Err)
	}
	if !exists(t, out.Destination) || exists(t, src) {
		t.Fatal("expected file at destination only")
	}
	var late bool
	for _, e := range h.sink.ForDocument(out.Document.ID) {
		if e.Action == audit.ActionCommitInconsistent {
			t.Fatal("commit_inconsistent must not be emitted when the file landed")
		}
		if e.Action == audit.ActionFileMoved && e.Payload["late"] == true {
			late = true
		}
	}
	if !late {
		t.Fatal("expected file_moved event marked late")
	}
}

func TestRegistryUpdatePrecedesMove(t *testing.T) {
	h := newHarness(t, nil, registry.Record{DisplayName: "Smith, John"})
	src := h.addDocument(t, "scan.pdf", letter("12345678", "John Smith", arAckBody))
	dest := filepath.Join(h.lettersDir("Smith, John"), "AR Ack - J. Smith 07.31.25.pdf")

	called := false
	h.reg.BeforeUpdate = func(string, registry.Update) error {
		called = true
		if exists(t, dest) || !exists(t, src) {
			t.Error("file moved before registry update")
		}
		return nil
	}

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Kind != pipeline.KindSuccess {
		t.Fatalf("expected success, got %s (%v)", out.Kind, out.Err)
	}
	if !called {
		t.Fatal("registry update never ran")
	}
}

func TestRegistryFailureSkipsMoveAndFlags(t *testing.T) {
	h := newHarness(t, nil, registry.Record{DisplayName: "Smith, John"})
	h.reg.UpdateErr = services.Wrap(services.ErrRegistryAPI, services.StageCommit, "update record", "status 500", nil)
	src := h.addDocument(t, "scan.pdf", letter("12345678", "John Smith", arAckBody))

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Kind != pipeline.KindFailed || out.Reason != "registry_api_error" || out.Stage != services.StageCommit {
		t.Fatalf("expected FAILED(commit, registry_api_error), got %s %s %s", out.Kind, out.Stage, out.Reason)
	}
	if out.Inconsistent || !out.NeedsReconciliation || out.RegistryUpdated {
		t.Fatalf("unexpected flags %+v", out)
	}
	if !exists(t, src) {
		t.Fatal("no move may happen after a failed registry update")
	}
	for _, action := range h.sink.Actions(out.Document.ID) {
		if action == audit.ActionFileMoved || action == audit.ActionRegistryUpdated {
			t.Fatalf("unexpected %s event", action)
		}
	}
}

type stallingRegistry struct {
	*registry.Memory
}

func (s stallingRegistry) Update(ctx context.Context, _ string, _ registry.Update) (registry.Record, error) {
	<-ctx.Done()
	return registry.Record{}, ctx.Err()
}

func TestRegistryTimeoutFailsDocument(t *testing.T) {
	mem := registry.NewMemory(registry.Record{DisplayName: "Smith, John"})
	h := newHarness(t, func(o *pipeline.Options) {
		o.Registry = stallingRegistry{mem}
		o.RegistryTimeout = 20 * time.Millisecond
	}, registry.Record{DisplayName: "Smith, John"})
	src := h.addDocument(t, "scan.pdf", letter("12345678", "John Smith", arAckBody))

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Reason != "timeout" || out.Stage != services.StageCommit {
		t.Fatalf("expected FAILED(commit, timeout), got %s %s (%v)", out.Stage, out.Reason, out.Err)
	}
	if !out.NeedsReconciliation {
		t.Fatal("expected timed out update to need reconciliation")
	}
	if !exists(t, src) {
		t.Fatal("source must stay in inbox")
	}
}

func TestSecondCommitOfSameDocumentDoesNotRepeat(t *testing.T) {
	h := newHarness(t, nil, registry.Record{DisplayName: "Smith, John"})
	text := letter("12345678", "John Smith", arAckBody)
	src := h.addDocument(t, "scan.pdf", text)

	first := h.orch.ProcessPath(context.Background(), src)
	if first.Kind != pipeline.KindSuccess {
		t.Fatalf("first run failed: %v", first.Err)
	}

	// The same scan lands in the inbox again.
	h.addDocument(t, "scan.pdf", text)
	second := h.orch.ProcessPath(context.Background(), src)
	if second.Document.ID != first.Document.ID {
		t.Fatalf("identity changed: %q vs %q", first.Document.ID, second.Document.ID)
	}
	if second.Kind != pipeline.KindFailed || second.Reason != "file_collision" {
		t.Fatalf("expected FAILED(file_collision), got %s %s", second.Kind, second.Reason)
	}
	if n := len(h.reg.Updates()); n != 1 {
		t.Fatalf("expected a single registry update, got %d", n)
	}
	rec, _ := h.reg.Record(first.RecordID)
	if strings.Count(rec.Log, "Rcvd AR Ack") != 1 {
		t.Fatalf("log entry duplicated: %q", rec.Log)
	}
}

func TestAmbiguousClientFails(t *testing.T) {
	h := newHarness(t, nil,
		registry.Record{DisplayName: "Smith, John (Sr)"},
		registry.Record{DisplayName: "Smith, John [2]"},
	)
	src := h.addDocument(t, "scan.pdf", letter("12345678", "John Smith", arAckBody))

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Reason != "client_ambiguous" {
		t.Fatalf("expected client_ambiguous, got %s (%v)", out.Reason, out.Err)
	}
	if len(out.Candidates) != 2 {
		t.Fatalf("expected both candidates, got %v", out.Candidates)
	}
}

func TestAmbiguousClassificationFails(t *testing.T) {
	table, err := classifier.NewTable([]classifier.Signature{
		{TypeID: "first", Label: "First", Anchors: []classifier.Anchor{classifier.AnyOf("shared phrase")}},
		{TypeID: "second", Label: "Second", Anchors: []classifier.Anchor{classifier.AnyOf("shared phrase")}},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	h := newHarness(t, func(o *pipeline.Options) {
		o.Classifier = classifier.New(table, classifier.Options{})
	})
	src := h.addDocument(t, "tie.pdf", "a letter with the shared phrase")

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Kind != pipeline.KindFailed || out.Stage != services.StageClassify || out.Reason != "classification_ambiguous" {
		t.Fatalf("expected FAILED(classify, classification_ambiguous), got %s %s %s", out.Kind, out.Stage, out.Reason)
	}
	if !reflect.DeepEqual(out.Candidates, []string{"first", "second"}) {
		t.Fatalf("candidates = %v", out.Candidates)
	}
}

func TestMissingFieldFailsExtraction(t *testing.T) {
	h := newHarness(t, nil, registry.Record{DisplayName: "Smith, John"})
	src := h.addDocument(t, "scan.pdf", letter("12345678", "", arAckBody))

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Stage != services.StageExtract || out.Reason != "missing_field" {
		t.Fatalf("expected FAILED(extract, missing_field), got %s %s", out.Stage, out.Reason)
	}
}

func TestUnreadableDocumentFailsRead(t *testing.T) {
	h := newHarness(t, nil)
	src := testsupport.WritePDF(t, h.cfg.Paths.InboxDir, "blank.pdf")

	out := h.orch.ProcessPath(context.Background(), src)
	if out.Stage != services.StageRead || out.Reason != "extraction_unreadable" {
		t.Fatalf("expected FAILED(read, extraction_unreadable), got %s %s", out.Stage, out.Reason)
	}
	if got := h.sink.Actions(out.Document.ID); len(got) != 2 {
		t.Fatalf("expected received and outcome events, got %v", got)
	}
}

func TestProcessPathMissingFile(t *testing.T) {
	h := newHarness(t, nil)
	out := h.orch.ProcessPath(context.Background(), filepath.Join(h.cfg.Paths.InboxDir, "gone.pdf"))
	if out.Kind != pipeline.KindFailed || out.Reason != "filesystem_error" {
		t.Fatalf("expected FAILED(filesystem_error), got %s %s", out.Kind, out.Reason)
	}
	if len(h.sink.Actions("gone.pdf")) == 0 {
		t.Fatal("expected an audit event for the missing file")
	}
}

func TestRunStopsBetweenDocuments(t *testing.T) {
	h := newHarness(t, nil, registry.Record{DisplayName: "Smith, John"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths := []string{
		h.addDocument(t, "a.pdf", letter("12345678", "John Smith", arAckBody)),
		h.addDocument(t, "b.pdf", letter("12345678", "John Smith", remandBody)),
		h.addDocument(t, "c.pdf", "Grocery list"),
	}
	var once sync.Once
	h.text.onExtract = func(string) { once.Do(cancel) }

	summary := h.orch.Run(ctx, paths)
	if summary.Committed != 1 || summary.Unprocessed != 2 {
		t.Fatalf("expected first document committed and two unprocessed, got %+v", summary)
	}
	if !exists(t, paths[1]) || !exists(t, paths[2]) {
		t.Fatal("unprocessed documents must stay in inbox")
	}
}

func TestRunSerializesCommitsPerClient(t *testing.T) {
	h := newHarness(t, func(o *pipeline.Options) { o.Workers = 4 },
		registry.Record{DisplayName: "Smith, John"},
		registry.Record{DisplayName: "Doe, Jane"},
	)
	paths := []string{
		h.addDocument(t, "1.pdf", letter("11111111", "John Smith", arAckBody)),
		h.addDocument(t, "2.pdf", letter("11111111", "John Smith", remandBody)),
		h.addDocument(t, "3.pdf", letter("22222222", "Jane Doe", arAckBody)),
		h.addDocument(t, "4.pdf", letter("22222222", "Jane Doe", remandBody)),
	}

	summary := h.orch.Run(context.Background(), paths)
	if summary.Committed != 4 {
		t.Fatalf("expected 4 committed, got %+v", summary)
	}
	for i, out := range summary.Outcomes {
		if out.Document.Path != paths[i] {
			t.Fatalf("outcome %d is for %s, want %s", i, out.Document.Path, paths[i])
		}
	}
	records, err := h.reg.FindByName(context.Background(), "")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	for _, rec := range records {
		for _, label := range []string{"Rcvd AR Ack.", "Rcvd Remand Order."} {
			if !strings.Contains(rec.Log, label) {
				t.Fatalf("%s log lost an entry: %q", rec.DisplayName, rec.Log)
			}
		}
	}
}
