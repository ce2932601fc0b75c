//go:build windows

package eventlog

import (
	"os"
)

// openAppend opens path write-only in append mode, creating it if absent.
// On Windows, os.OpenFile maps O_APPEND to FILE_APPEND_DATA.
func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
}
