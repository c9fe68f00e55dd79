//go:build windows

package fsop

import "os"

// os.Symlink probes the target to pick a file or directory symlink, which
// works because confinement requires the target to exist. The explicit dir
// hint stays in the descriptor for callers that bypass confinement.
func makeSymlink(target, link string, _ bool) error {
	return os.Symlink(target, link)
}
