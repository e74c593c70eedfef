package pipeline

import (
	"context"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/RabowNicholas/swna-automation/internal/logging"
	"github.com/RabowNicholas/swna-automation/internal/notifications"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

// ProcessPath identifies the file at path and processes it. A file that can
// not be read or hashed still gets a FAILED(read) outcome.
func (o *Orchestrator) ProcessPath(ctx context.Context, path string) Outcome {
	doc, err := Identify(path)
	if err == nil {
		return o.Process(ctx, doc)
	}
	name := filepath.Base(path)
	doc = Document{ID: name, Path: path, Name: name}
	out := Outcome{
		Document: doc,
		Kind:     KindFailed,
		State:    StateFailed,
		Stage:    services.StageRead,
		Err:      services.Wrap(services.ErrFilesystem, services.StageRead, "identify", path, err),
	}
	out.Reason = services.Code(out.Err)
	ctx = services.WithDocumentID(context.WithoutCancel(ctx), doc.ID)
	o.finish(ctx, &out)
	return out
}

// Run processes paths and returns the aggregate. Cancellation of ctx is
// honored between documents only; documents never started are counted as
// unprocessed. With more than one worker documents run concurrently, and
// commits for the same client still serialize on the client lock.
func (o *Orchestrator) Run(ctx context.Context, paths []string) Summary {
	started := o.now()
	outcomes := make([]*Outcome, len(paths))

	if o.workers <= 1 || len(paths) <= 1 {
		for i, path := range paths {
			if ctx.Err() != nil {
				break
			}
			out := o.ProcessPath(ctx, path)
			outcomes[i] = &out
		}
	} else {
		var mu sync.Mutex
		g := new(errgroup.Group)
		g.SetLimit(o.workers)
		for i, path := range paths {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				out := o.ProcessPath(ctx, path)
				mu.Lock()
				outcomes[i] = &out
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	var summary Summary
	for _, out := range outcomes {
		if out == nil {
			summary.Unprocessed++
			continue
		}
		summary.add(*out)
	}
	summary.Duration = o.now().Sub(started)
	o.reportRun(ctx, summary)
	return summary
}

func (o *Orchestrator) reportRun(ctx context.Context, s Summary) {
	ctx = context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, o.logger)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_completed"),
		logging.Int("committed", s.Committed),
		logging.Int("ignored", s.Ignored),
		logging.Int("failed", s.Failed),
		logging.Int("inconsistent", s.Inconsistent),
		logging.Duration("duration", s.Duration),
	}
	if s.Unprocessed > 0 {
		attrs = append(attrs, logging.Int("unprocessed", s.Unprocessed))
		logging.WarnWithContext(logger, "run interrupted", "run_interrupted",
			append(attrs,
				logging.String(logging.FieldImpact, "remaining documents stay in the inbox for the next run"),
			)...)
	} else {
		logger.Info("run completed", logging.Args(attrs...)...)
	}

	if len(s.Outcomes) == 0 {
		return
	}
	if err := o.notifier.Publish(ctx, notifications.EventRunCompleted, notifications.Payload{
		"committed": s.Committed,
		"ignored":   s.Ignored,
		"failed":    s.Failed,
		"duration":  s.Duration,
	}); err != nil {
		logger.Warn("run notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.Error(err),
		)
	}
}

// SessionCounts converts a summary into the counts carried on session_ended.
func (s Summary) SessionCounts() map[string]any {
	return map[string]any{
		"committed":    s.Committed,
		"ignored":      s.Ignored,
		"failed":       s.Failed,
		"inconsistent": s.Inconsistent,
		"unprocessed":  s.Unprocessed,
	}
}
