//go:build !unix

package brewsvc

import (
	"fmt"
	"io/fs"
)

// checkAccess falls back to the permission bits where access(2) is missing
func checkAccess(path string, mode fs.FileMode) error {
	if mode.Perm()&0o111 == 0 {
		return fmt.Errorf("%s: not executable", path)
	}
	return nil
}
