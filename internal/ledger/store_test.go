package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/RabowNicholas/swna-automation/internal/ledger"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.Record(ctx, ledger.Entry{
		DocumentID:  "scan.pdf#abcd",
		SourcePath:  "/inbox/scan.pdf",
		State:       "committed",
		TypeID:      "ar_ack",
		Label:       "AR Ack",
		Confidence:  1,
		CaseID:      "12345678",
		ClientName:  "Smith, John",
		RecordID:    "rec1",
		Destination: "/clients/Smith, John/DOL Letters/AR Ack - J. Smith 07.31.25.pdf",
		SessionID:   "s1",
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.CaseID != "12345678" || got.Label != "AR Ack" || got.NeedsReconciliation || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", got)
	}

	if _, err := store.Get(ctx, id+100); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordRequiresIdentity(t *testing.T) {
	store := openStore(t)
	if _, err := store.Record(context.Background(), ledger.Entry{State: "failed"}); err == nil {
		t.Fatal("expected error without document id")
	}
}

func TestReconciliationQueue(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, e := range []ledger.Entry{
		{DocumentID: "a", SourcePath: "a.pdf", State: "failed", Stage: "commit", Reason: "filesystem_error", Inconsistent: true, NeedsReconciliation: true},
		{DocumentID: "b", SourcePath: "b.pdf", State: "ignored", Reason: "unknown"},
		{DocumentID: "c", SourcePath: "c.pdf", State: "failed", Stage: "commit", Reason: "registry_api_error", NeedsReconciliation: true},
	} {
		if _, err := store.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	pending, err := store.PendingReconciliation(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].DocumentID != "a" || !pending[0].Inconsistent {
		t.Fatalf("unexpected pending rows %+v", pending)
	}

	if err := store.Resolve(ctx, pending[0].ID, ""); err == nil {
		t.Fatal("expected note to be required")
	}
	if err := store.Resolve(ctx, pending[0].ID, "moved by hand"); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if err := store.Resolve(ctx, pending[0].ID, "again"); !errors.Is(err, ledger.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	resolved, err := store.Get(ctx, pending[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.ResolutionNote != "moved by hand" || resolved.ResolvedAt.IsZero() {
		t.Fatalf("resolution not stored: %+v", resolved)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["failed"] != 2 || counts["ignored"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}

	failed, err := store.List(ctx, ledger.ListOptions{State: "failed", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].DocumentID != "c" {
		t.Fatalf("expected newest failed row, got %+v", failed)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := ledger.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Record(context.Background(), ledger.Entry{DocumentID: "a", SourcePath: "a.pdf", State: "committed"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()
	rows, err := reopened.List(context.Background(), ledger.ListOptions{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected persisted row, got %v %v", rows, err)
	}
}

func TestConcurrentRecordsAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	stores := make([]*ledger.Store, 2)
	for i := range stores {
		store, err := ledger.Open(path)
		if err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		stores[i] = store
	}

	ctx := context.Background()
	const perStore = 20
	var wg sync.WaitGroup
	errs := make(chan error, len(stores)*perStore)
	for i, store := range stores {
		for j := 0; j < perStore; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Record(ctx, ledger.Entry{
					DocumentID: fmt.Sprintf("scan-%d-%d.pdf#abcd", i, j),
					SourcePath: "/inbox/scan.pdf",
					State:      "committed",
				})
				errs <- err
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Record returned error: %v", err)
		}
	}

	rows, err := stores[0].List(ctx, ledger.ListOptions{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(rows) != len(stores)*perStore {
		t.Fatalf("expected %d rows, got %d", len(stores)*perStore, len(rows))
	}
}
