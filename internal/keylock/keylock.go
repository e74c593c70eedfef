// Package keylock serializes work per key. Commits hold the lock for their
// client record so registry read-modify-write cycles never interleave.
//
// Locks are in-process by default. When a directory is configured each key
// is additionally guarded by a flock(2) lock file there, which extends the
// exclusion to other swna processes sharing the same state directory.
package keylock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const fileRetryDelay = 50 * time.Millisecond

// Locker is a keyed lock table.
type Locker struct {
	dir string

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

// New returns a locker. dir may be empty for in-process locking only.
func New(dir string) *Locker {
	return &Locker{dir: strings.TrimSpace(dir), entries: make(map[string]*entry)}
}

// Lock blocks until key is held or ctx ends. The returned func releases it
// and is safe to call once.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("keylock: empty key")
	}
	e := l.acquireEntry(key)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.releaseEntry(key, e)
		return nil, fmt.Errorf("wait for lock %s: %w", key, ctx.Err())
	}

	var fileLock *flock.Flock
	if l.dir != "" {
		fl, err := l.lockFile(ctx, key)
		if err != nil {
			<-e.sem
			l.releaseEntry(key, e)
			return nil, err
		}
		fileLock = fl
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if fileLock != nil {
				_ = fileLock.Unlock()
			}
			<-e.sem
			l.releaseEntry(key, e)
		})
	}, nil
}

// Held reports how many keys currently have holders or waiters.
func (l *Locker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Locker) acquireEntry(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) releaseEntry(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *Locker) lockFile(ctx context.Context, key string) (*flock.Flock, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	fl := flock.New(LockFilePath(l.dir, key))
	ok, err := fl.TryLockContext(ctx, fileRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock file for %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire lock file for %s: not acquired", key)
	}
	return fl, nil
}

// LockFilePath returns the lock file used for key under dir.
func LockFilePath(dir, key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(dir, "client-"+hex.EncodeToString(sum[:8])+".lock")
}
