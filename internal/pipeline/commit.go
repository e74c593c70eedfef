package pipeline

import (
	"context"
	"errors"
	"io/fs"

	"github.com/RabowNicholas/swna-automation/internal/audit"
	"github.com/RabowNicholas/swna-automation/internal/fileutil"
	"github.com/RabowNicholas/swna-automation/internal/logging"
	"github.com/RabowNicholas/swna-automation/internal/registry"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

// commit performs the only side effects in the pipeline: (1) the registry
// update, then (2) the no-replace move. The client lock is held across both
// so read-modify-write cycles on one record never interleave.
func (r *docRun) commit() bool {
	ctx := r.stageCtx(services.StageCommit)
	logger := logging.WithContext(ctx, r.o.logger)

	lockCtx, cancelLock := context.WithTimeout(ctx, r.o.lockTimeout)
	unlock, err := r.o.locks.Lock(lockCtx, r.record.ID)
	cancelLock()
	if err != nil {
		return r.fail(services.StageCommit, services.Wrap(services.ErrTimeout, services.StageCommit, "client lock", r.record.ID, err))
	}
	defer unlock()

	current, err := r.getRecord(ctx)
	if err != nil {
		return r.fail(services.StageCommit, err)
	}

	// Another commit for this client may have filed a letter under the same
	// name since validation ran.
	if !r.recheckDestination(ctx) {
		return false
	}

	entry := registry.LogEntry(r.outcome.Label, r.day, r.o.logSuffix)
	update, needed := registry.PlanUpdate(current, r.fields.CaseID, entry)
	if needed {
		updateCtx, cancel := context.WithTimeout(ctx, r.o.registryTimeout)
		_, err := r.o.registry.Update(updateCtx, r.record.ID, update)
		err = timeoutAware(updateCtx, services.StageCommit, "update record", err)
		cancel()
		if err != nil {
			// The write may have landed remotely before the failure surfaced.
			r.outcome.NeedsReconciliation = true
			return r.fail(services.StageCommit, err)
		}
		r.outcome.RegistryUpdated = true
		r.emit(audit.Event{
			Action: audit.ActionRegistryUpdated,
			Stage:  services.StageCommit,
			Payload: map[string]any{
				"record_id":   r.record.ID,
				"case_id":     r.fields.CaseID,
				"log_entry":   entry,
				"set_case_id": update.CaseID != "",
				"append_log":  update.Log != "",
			},
		})
		logger.Info("registry updated",
			logging.String(logging.FieldEventType, "registry_updated"),
			logging.String("client", r.record.DisplayName),
			logging.String("case_id", r.fields.CaseID),
		)
	} else {
		r.emit(audit.Event{
			Action: audit.ActionRegistrySkipped,
			Stage:  services.StageCommit,
			Reason: "already_applied",
			Payload: map[string]any{
				"record_id": r.record.ID,
				"case_id":   r.fields.CaseID,
				"log_entry": entry,
			},
		})
	}

	src := r.outcome.Document.Path
	moveCtx, cancelMove := context.WithTimeout(ctx, r.o.filesystemTimeout)
	err = fileutil.Bounded(moveCtx, func() error { return r.o.move(src, r.dest.Path) })
	cancelMove()
	late := false
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return r.inconsistent(moveError(err, src), moveState{})
		}
		// The abandoned rename may still have landed.
		state := r.observeMove(ctx, src)
		if !state.moved() {
			return r.inconsistent(moveError(err, src), state)
		}
		late = true
		logging.WarnWithContext(logger, "move completed after timeout", "move_late",
			logging.String("destination", r.dest.Path),
			logging.String(logging.FieldImpact, "none; file is at its destination"),
		)
	}

	payload := map[string]any{
		"source":      src,
		"destination": r.dest.Path,
	}
	if late {
		payload["late"] = true
	}
	r.emit(audit.Event{
		Action:  audit.ActionFileMoved,
		Stage:   services.StageCommit,
		Payload: payload,
	})
	r.outcome.Kind = KindSuccess
	r.outcome.State = StateCommitted
	r.outcome.Stage = services.StageCommit
	return true
}

func (r *docRun) getRecord(ctx context.Context) (registry.Record, error) {
	getCtx, cancel := context.WithTimeout(ctx, r.o.registryTimeout)
	defer cancel()
	rec, err := r.o.registry.Get(getCtx, r.record.ID)
	if err != nil {
		err = timeoutAware(getCtx, services.StageCommit, "get record", err)
		if !errors.Is(err, services.ErrRegistryAPI) && !errors.Is(err, services.ErrTimeout) {
			err = services.Wrap(services.ErrRegistryAPI, services.StageCommit, "get record", r.record.ID, err)
		}
		return registry.Record{}, err
	}
	return rec, nil
}

func (r *docRun) recheckDestination(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, r.o.filesystemTimeout)
	defer cancel()
	var exists bool
	err := fileutil.Bounded(checkCtx, func() error {
		var err error
		exists, err = fileutil.Exists(r.dest.Path)
		return err
	})
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return r.fail(services.StageCommit, services.Wrap(services.ErrTimeout, services.StageCommit, "recheck destination", r.dest.Path, err))
	case err != nil:
		return r.fail(services.StageCommit, services.Wrap(services.ErrFilesystem, services.StageCommit, "recheck destination", r.dest.Path, err))
	case exists:
		return r.fail(services.StageCommit, services.Wrap(services.ErrFileCollision, services.StageCommit, "recheck destination", r.dest.Path, nil))
	}
	return true
}

// moveState is what the filesystem shows after a failed or abandoned move.
type moveState struct {
	sourcePresent      bool
	destinationPresent bool
	observed           bool
}

func (m moveState) moved() bool {
	return m.observed && !m.sourcePresent && m.destinationPresent
}

// observeMove stats both ends of a timed-out move. observed stays false when
// the stats themselves fail or hang.
func (r *docRun) observeMove(ctx context.Context, src string) moveState {
	checkCtx, cancel := context.WithTimeout(ctx, r.o.filesystemTimeout)
	defer cancel()
	var state moveState
	err := fileutil.Bounded(checkCtx, func() error {
		srcOK, err := fileutil.Exists(src)
		if err != nil {
			return err
		}
		dstOK, err := fileutil.Exists(r.dest.Path)
		if err != nil {
			return err
		}
		state = moveState{sourcePresent: srcOK, destinationPresent: dstOK, observed: true}
		return nil
	})
	if err != nil {
		return moveState{}
	}
	return state
}

// inconsistent records a move failure after step (1). Nothing is rolled back;
// the registry already says the letter was filed.
func (r *docRun) inconsistent(err error, state moveState) bool {
	r.outcome.Inconsistent = true
	r.outcome.NeedsReconciliation = true
	payload := map[string]any{
		"record_id":        r.record.ID,
		"client":           r.record.DisplayName,
		"registry_updated": r.outcome.RegistryUpdated,
		"file_moved":       false,
		"source":           r.outcome.Document.Path,
		"destination":      r.dest.Path,
		"error":            err.Error(),
	}
	if state.observed {
		payload["source_present"] = state.sourcePresent
		payload["destination_present"] = state.destinationPresent
	} else if errors.Is(err, services.ErrTimeout) {
		payload["file_state"] = "unknown"
	}
	r.emit(audit.Event{
		Action:  audit.ActionCommitInconsistent,
		Level:   audit.LevelError,
		Stage:   services.StageCommit,
		Reason:  services.Code(err),
		Payload: payload,
	})
	return r.fail(services.StageCommit, err)
}

func moveError(err error, src string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, services.StageCommit, "move", src, err)
	case errors.Is(err, fs.ErrExist):
		return services.Wrap(services.ErrFileCollision, services.StageCommit, "move", src, err)
	default:
		return services.Wrap(services.ErrFilesystem, services.StageCommit, "move", src, err)
	}
}
