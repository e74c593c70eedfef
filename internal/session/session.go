// Package session owns the lifecycle of one processing run: its identity, the
// single-instance lock, and the audit sink that every document event flows
// through.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/RabowNicholas/swna-automation/internal/audit"
	"github.com/RabowNicholas/swna-automation/internal/config"
	"github.com/RabowNicholas/swna-automation/internal/logging"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

// ErrAlreadyRunning is returned when another session holds the lock.
var ErrAlreadyRunning = errors.New("another swna session is running")

// Options customize Start.
type Options struct {
	Logger *slog.Logger
	// Command is recorded on session_started.
	Command string
	// Sinks receive every event in addition to the session's audit file.
	Sinks []audit.Sink
	Now   func() time.Time
}

// Session is an open processing session. Close it with End.
type Session struct {
	ID        string
	Started   time.Time
	AuditPath string

	logger *slog.Logger
	lock   *flock.Flock
	file   *audit.FileSink
	sink   audit.Sink
	now    func() time.Time

	endOnce sync.Once
	endErr  error
}

// Start acquires the session lock, opens the audit file and emits
// session_started.
func Start(ctx context.Context, cfg *config.Config, opts Options) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("session: config is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare directories: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, cfg.LockPath())
	}

	s := &Session{
		ID:      uuid.NewString(),
		Started: now(),
		lock:    lock,
		now:     now,
	}
	s.AuditPath = filepath.Join(cfg.AuditDir(), audit.FileName(s.Started, s.ID))
	file, err := audit.OpenFile(s.AuditPath, s.ID)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	s.file = file
	s.sink = audit.Multi(append([]audit.Sink{file}, opts.Sinks...)...)
	s.logger = logging.WithSessionID(logging.NewComponentLogger(opts.Logger, "session"), s.ID)

	removed := logging.CleanupOldLogs(s.logger, cfg.Logging.RetentionDays, s.Started,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: logging.LogFilePattern},
	)

	if err := s.sink.Emit(s.Context(ctx), audit.Event{
		SessionID: s.ID,
		Action:    audit.ActionSessionStarted,
		Payload: map[string]any{
			"command":     opts.Command,
			"inbox_dir":   cfg.Paths.InboxDir,
			"clients_dir": cfg.ActiveClientsDir(),
			"workers":     cfg.Pipeline.Workers,
		},
	}); err != nil {
		_ = file.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("write session_started: %w", err)
	}
	s.logger.Info("session started",
		logging.String(logging.FieldEventType, "session_started"),
		logging.String("audit_path", s.AuditPath),
		logging.Int("logs_pruned", removed),
	)
	return s, nil
}

// Sink is the audit sink for this session.
func (s *Session) Sink() audit.Sink { return s.sink }

// Logger returns a logger stamped with the session id.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Context annotates ctx with the session id.
func (s *Session) Context(ctx context.Context) context.Context {
	return services.WithSessionID(ctx, s.ID)
}

// End emits session_ended with counts, closes the audit file and releases
// the lock. Later calls return the first result.
func (s *Session) End(ctx context.Context, counts map[string]any) error {
	s.endOnce.Do(func() {
		elapsed := s.now().Sub(s.Started)
		var errs []error
		errs = append(errs, s.sink.Emit(s.Context(context.WithoutCancel(ctx)), audit.Event{
			SessionID:  s.ID,
			Action:     audit.ActionSessionEnded,
			DurationMS: elapsed.Milliseconds(),
			Payload:    counts,
		}))
		errs = append(errs, s.sink.Close())
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("release session lock: %w", err))
		}
		s.endErr = errors.Join(errs...)
		s.logger.Info("session ended",
			logging.String(logging.FieldEventType, "session_ended"),
			logging.Duration("duration", elapsed),
		)
	})
	return s.endErr
}
