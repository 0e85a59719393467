// Package fileutil holds small filesystem primitives shared by the spool.
package fileutil

import (
	"errors"
	"os"
)

// ErrExists is returned by RenameNoReplace when the destination already
// exists. It is wrapped inside an *os.LinkError.
var ErrExists = os.ErrExist

// RenameNoReplace atomically renames src to dst, failing instead of
// overwriting when dst exists. Errors are *os.LinkError values so callers can
// classify them with errors.Is against fs.ErrNotExist / fs.ErrExist.
func RenameNoReplace(src, dst string) error {
	err := renameNoReplace(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return err
	}
	return &os.LinkError{Op: "rename", Old: src, New: dst, Err: err}
}

// renameChecked is the portable fallback: it refuses an existing destination
// and then uses rename(2). The check and the rename are not atomic together.
func renameChecked(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: ErrExists}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: err}
	}
	return os.Rename(src, dst)
}

// IsExecutable reports whether info describes a regular file with any execute
// bit set.
func IsExecutable(info os.FileInfo) bool {
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
