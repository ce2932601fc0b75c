//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/tally/internal/errors"
)

// openFileNoFollow opens a file for writing. Windows has no O_NOFOLLOW, so the
// final component is checked with Lstat first.
func openFileNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("cannot write to symlink")
	}
	return os.OpenFile(path, flag, perm)
}
