//go:build unix

package brewsvc

import (
	"fmt"
	"io/fs"

	"golang.org/x/sys/unix"
)

// checkAccess asks the kernel whether the current user may execute path
func checkAccess(path string, _ fs.FileMode) error {
	if err := unix.Access(path, unix.X_OK); err != nil {
		return fmt.Errorf("%s: not executable: %w", path, err)
	}
	return nil
}
