// Package security confines filesystem access to a fixed root directory.
//
// Resolution canonicalizes the candidate path with OS real-path resolution
// before checking containment, so symlinks inside the root that point
// outside it are caught; a purely lexical check would miss them. The check
// happens once, at resolution time — a concurrent rename or relink between
// resolution and use is an accepted race.
package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrRejected is the single outcome for every failed resolution. Escapes,
// nonexistent targets, permission errors and symlink loops are deliberately
// indistinguishable so that callers cannot probe the filesystem outside the
// root through error variety. Callers should surface it as "not found".
var ErrRejected = errors.New("security: path rejected")

// Root is an absolute, canonicalized directory that bounds all resolution.
// It is immutable after construction and safe for unlimited concurrent use.
type Root struct {
	dir string
}

// NewRoot canonicalizes dir and returns a Root confined to it.
func NewRoot(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("security: root is not a directory")
	}
	return &Root{dir: resolved}, nil
}

// Dir returns the canonicalized root directory.
func (r *Root) Dir() string {
	return r.dir
}

// Resolve maps a caller-supplied relative path to an absolute path proven
// to reside under the root, or rejects it. A leading separator is stripped
// so absolute-looking input is treated as root-relative, matching how the
// empty path and "." resolve to the root itself. The target must exist.
func (r *Root) Resolve(name string) (string, error) {
	joined := filepath.Join(r.dir, strings.TrimPrefix(name, "/"))
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", ErrRejected
	}
	if !r.contains(resolved) {
		return "", ErrRejected
	}
	return resolved, nil
}

// ResolveNew confines a path whose final element need not exist: the parent
// chain is canonicalized and containment-checked, then the final element is
// appended. Used for creation targets, and for operations such as readlink
// and lstat that must address a link itself rather than what it points to.
//
// When the final element already exists as a symlink it is fully
// canonicalized and containment-checked before the link path is returned,
// so a pre-planted link cannot steer a creation target outside the root.
// Dangling links are rejected with everything else.
func (r *Root) ResolveNew(name string) (string, error) {
	joined := filepath.Clean(filepath.Join(r.dir, strings.TrimPrefix(name, "/")))
	if joined == r.dir {
		return joined, nil
	}
	parent, base := filepath.Split(joined)
	if base == "" || base == "." || base == ".." {
		return "", ErrRejected
	}
	resolvedParent, err := filepath.EvalSymlinks(filepath.Clean(parent))
	if err != nil {
		return "", ErrRejected
	}
	if !r.contains(resolvedParent) {
		return "", ErrRejected
	}
	target := filepath.Join(resolvedParent, base)
	if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(target)
		if err != nil || !r.contains(resolved) {
			return "", ErrRejected
		}
	}
	return target, nil
}

func (r *Root) contains(path string) bool {
	if path == r.dir {
		return true
	}
	prefix := r.dir
	// A root of "/" already ends in the separator.
	if prefix != string(filepath.Separator) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
