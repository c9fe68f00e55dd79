//go:build !windows

package fsop

import "os"

// Symbolic links need no file/directory distinction off Windows; the dir
// hint is accepted and ignored.
func makeSymlink(target, link string, _ bool) error {
	return os.Symlink(target, link)
}
