//go:build !windows

package eventlog

import (
	"os"
	"syscall"
)

// openAppend opens path write-only in append mode, creating it with 0600 if absent.
// O_APPEND makes every write land at the current end of file, so concurrent
// small appends never interleave within a line. O_CLOEXEC prevents FD leaks across exec.
func openAppend(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_WRONLY|syscall.O_APPEND|syscall.O_CREAT|syscall.O_CLOEXEC, 0600)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return os.NewFile(uintptr(fd), path), nil
}
