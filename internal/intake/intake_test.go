package intake_test

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/RabowNicholas/swna-automation/internal/intake"
	"github.com/RabowNicholas/swna-automation/internal/logging"
	"github.com/RabowNicholas/swna-automation/internal/testsupport"
)

func TestIsCandidate(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"scan001.pdf", true},
		{"SCAN002.PDF", true},
		{"notes.txt", false},
		{".scan.pdf", false},
		{"AR Ack - J. Smith 07.31.25.pdf", false},
		{"ar ack - j. smith 07.31.25.PDF", false},
	}
	for _, tc := range tests {
		if got := intake.IsCandidate(tc.name); got != tc.want {
			t.Errorf("IsCandidate(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestScanSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	testsupport.WritePDF(t, dir, "b.pdf")
	testsupport.WritePDF(t, dir, "a.PDF")
	testsupport.WritePDF(t, dir, "Remand Order - J. Smith 07.31.25.pdf")
	testsupport.WriteFile(t, filepath.Join(dir, "readme.txt"), []byte("x"))
	testsupport.WritePDF(t, filepath.Join(dir, "sub"), "nested.pdf")

	got, err := intake.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.pdf")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan = %v, want %v", got, want)
	}
}

func TestScanMissingDir(t *testing.T) {
	if _, err := intake.Scan(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing inbox")
	}
}

func TestWatchBatchesNewFiles(t *testing.T) {
	dir := t.TempDir()
	testsupport.WritePDF(t, dir, "existing.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var batches [][]string
	handled := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- intake.Watch(ctx, intake.WatchOptions{
			Dir:         dir,
			Debounce:    50 * time.Millisecond,
			InitialScan: true,
			Logger:      logging.NewNop(),
		}, func(_ context.Context, paths []string) {
			mu.Lock()
			batches = append(batches, paths)
			mu.Unlock()
			handled <- struct{}{}
		})
	}()

	waitFor := func() {
		t.Helper()
		select {
		case <-handled:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for batch")
		}
	}
	waitFor()

	testsupport.WritePDF(t, dir, "new.pdf")
	testsupport.WriteFile(t, filepath.Join(dir, "ignored.txt"), []byte("x"))
	waitFor()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(batches[0], []string{filepath.Join(dir, "existing.pdf")}) {
		t.Fatalf("initial batch = %v", batches[0])
	}
	if !reflect.DeepEqual(batches[1], []string{filepath.Join(dir, "new.pdf")}) {
		t.Fatalf("watch batch = %v", batches[1])
	}
}
