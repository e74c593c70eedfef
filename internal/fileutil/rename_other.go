//go:build !linux

package fileutil

import (
	"errors"
	"syscall"
)

func renameNoReplace(src, dst string) error {
	return linkMove(src, dst)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
