package fileutil

import (
	"context"
	"fmt"
)

// Bounded runs fn and returns early with ctx's error when ctx ends first.
// fn keeps running in the background in that case; it must not touch state
// the caller reuses. Used for stat and rename calls on network-synced trees
// that can hang.
func Bounded(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("filesystem call abandoned: %w", ctx.Err())
	}
}
