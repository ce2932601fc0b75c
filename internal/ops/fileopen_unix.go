//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/tally/internal/errors"
)

// openFileNoFollow opens a file for writing with O_NOFOLLOW so a symlink in the
// final path component is refused. O_CLOEXEC prevents FD leaks across exec.
//
// O_NOFOLLOW only covers the final component. ValidateExportPath requires the
// file to sit directly in an allowed directory, which covers the parent.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		if stderrors.Is(err, syscall.ELOOP) {
			return nil, errors.NewInvalidRequest("cannot write to symlink")
		}
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}
