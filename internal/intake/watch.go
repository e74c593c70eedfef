package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/RabowNicholas/swna-automation/internal/logging"
)

const defaultDebounce = 2 * time.Second

// WatchOptions configure Watch.
type WatchOptions struct {
	Dir string
	// Debounce is how long the inbox must stay quiet before a batch is handed
	// off. Scanners write a file in several steps.
	Debounce    time.Duration
	InitialScan bool
	Logger      *slog.Logger
}

// Handler processes one batch of paths. It runs on the watch goroutine, so
// events arriving meanwhile are collected into the next batch.
type Handler func(ctx context.Context, paths []string)

// Watch calls handle with debounced batches of new inbox files until ctx is
// done. It returns nil on cancellation.
func Watch(ctx context.Context, opts WatchOptions, handle Handler) error {
	if opts.Dir == "" {
		return errors.New("intake: inbox directory is required")
	}
	if handle == nil {
		return errors.New("intake: handler is required")
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := logging.NewComponentLogger(opts.Logger, "intake")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(opts.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", opts.Dir, err)
	}
	logger.Info("watching inbox",
		logging.String(logging.FieldEventType, "watch_started"),
		logging.String("inbox_dir", opts.Dir),
		logging.Duration("debounce", debounce),
	)

	if opts.InitialScan {
		paths, err := Scan(opts.Dir)
		if err != nil {
			return err
		}
		if len(paths) > 0 {
			handle(ctx, paths)
		}
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !IsCandidate(filepath.Base(event.Name)) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(logger, "inbox watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some inbox changes may be picked up late"),
			)
		case <-timer.C:
			batch := drain(pending)
			if len(batch) > 0 && ctx.Err() == nil {
				handle(ctx, batch)
			}
		}
	}
}

// drain empties pending and returns the paths that still exist, sorted.
// A rename out of the inbox reports the old name, which is gone by now.
func drain(pending map[string]struct{}) []string {
	batch := make([]string, 0, len(pending))
	for path := range pending {
		delete(pending, path)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		batch = append(batch, path)
	}
	slices.Sort(batch)
	return batch
}
