//go:build linux

package fileutil

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/unix"
)

func renameNoReplace(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		return fs.ErrExist
	case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EINVAL):
		// Kernel or filesystem without RENAME_NOREPLACE support.
		return linkMove(src, dst)
	default:
		return &fs.PathError{Op: "renameat2", Path: src, Err: err}
	}
}

func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
