package fsop

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"syscall"

	"fsgate/internal/security"
)

const defaultFilePerm = 0o644

// Router resolves a descriptor's paths and dispatches it to the matching
// OS primitive. With a nil root, confinement is disabled and paths reach
// the OS verbatim. A Router is stateless and safe for concurrent use;
// concurrently submitted descriptors carry no ordering guarantee.
type Router struct {
	root *security.Root
}

// NewRouter returns a router confined to root, or an unconfined one when
// root is nil.
func NewRouter(root *security.Root) *Router {
	return &Router{root: root}
}

// resolve confines a path that must already exist. Rejections surface as
// fs.ErrNotExist so callers cannot tell an escape from an absent file.
func (rt *Router) resolve(name string) (string, error) {
	if rt.root == nil {
		return name, nil
	}
	path, err := rt.root.Resolve(name)
	if err != nil {
		return "", fs.ErrNotExist
	}
	return path, nil
}

// resolveTarget confines a path whose final element may not exist yet, or
// that must be addressed without following a final symlink.
func (rt *Router) resolveTarget(name string) (string, error) {
	if rt.root == nil {
		return name, nil
	}
	path, err := rt.root.ResolveNew(name)
	if err != nil {
		return "", fs.ErrNotExist
	}
	return path, nil
}

// Do performs one operation. I/O errors from the OS propagate verbatim and
// are never retried. The context is consulted before the OS call; the call
// itself is the only suspension point.
func (rt *Router) Do(ctx context.Context, op Op) (Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch op := op.(type) {
	case Copy:
		from, err := rt.resolve(op.From)
		if err != nil {
			return nil, err
		}
		to, err := rt.resolveTarget(op.To)
		if err != nil {
			return nil, err
		}
		n, err := copyFile(from, to)
		if err != nil {
			return nil, err
		}
		return Copied{Bytes: n}, nil

	case CreateDir:
		path, err := rt.resolveTarget(op.Path)
		if err != nil {
			return nil, err
		}
		if op.Recursive {
			err = os.MkdirAll(path, 0o755)
		} else {
			err = os.Mkdir(path, 0o755)
		}
		if err != nil {
			return nil, err
		}
		return Done{}, nil

	case Exists:
		path, err := rt.resolve(op.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Presence{Exists: false}, nil
			}
			return nil, err
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Presence{Exists: false}, nil
			}
			return nil, err
		}
		return Presence{Exists: true}, nil

	case FollowLink:
		path, err := rt.resolveTarget(op.Path)
		if err != nil {
			return nil, err
		}
		target, err := os.Readlink(path)
		if err != nil {
			return nil, err
		}
		return PointsTo{Target: target}, nil

	case GetMetadata:
		var info fs.FileInfo
		if op.FollowSymlinks {
			path, err := rt.resolve(op.Path)
			if err != nil {
				return nil, err
			}
			info, err = os.Stat(path)
			if err != nil {
				return nil, err
			}
		} else {
			path, err := rt.resolveTarget(op.Path)
			if err != nil {
				return nil, err
			}
			info, err = os.Lstat(path)
			if err != nil {
				return nil, err
			}
		}
		return Metadata{Info: info}, nil

	case HardLink:
		src, err := rt.resolve(op.Src)
		if err != nil {
			return nil, err
		}
		dst, err := rt.resolveTarget(op.Dst)
		if err != nil {
			return nil, err
		}
		if err := os.Link(src, dst); err != nil {
			return nil, err
		}
		return Done{}, nil

	case Open:
		var path string
		var err error
		if op.Mode.creates() {
			path, err = rt.resolveTarget(op.Path)
		} else {
			path, err = rt.resolve(op.Path)
		}
		if err != nil {
			return nil, err
		}
		flags, err := op.Mode.flags()
		if err != nil {
			return nil, err
		}
		perm := op.Perm
		if perm == 0 {
			perm = defaultFilePerm
		}
		f, err := os.OpenFile(path, flags, perm)
		if err != nil {
			return nil, err
		}
		return File{Handle: f}, nil

	case ReadDir:
		path, err := rt.resolve(op.Path)
		if err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		return Directory{Entries: entries}, nil

	case RemoveDir:
		path, err := rt.resolve(op.Path)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, &fs.PathError{Op: "removedir", Path: op.Path, Err: syscall.ENOTDIR}
		}
		if op.Recursive {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}
		if err != nil {
			return nil, err
		}
		return Done{}, nil

	case RemoveFile:
		path, err := rt.resolveTarget(op.Path)
		if err != nil {
			return nil, err
		}
		info, err := os.Lstat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, &fs.PathError{Op: "removefile", Path: op.Path, Err: syscall.EISDIR}
		}
		if err := os.Remove(path); err != nil {
			return nil, err
		}
		return Done{}, nil

	case Rename:
		from, err := rt.resolveTarget(op.From)
		if err != nil {
			return nil, err
		}
		to, err := rt.resolveTarget(op.To)
		if err != nil {
			return nil, err
		}
		if err := os.Rename(from, to); err != nil {
			return nil, err
		}
		return Done{}, nil

	case SetPermissions:
		path, err := rt.resolve(op.Path)
		if err != nil {
			return nil, err
		}
		if err := os.Chmod(path, op.Perm); err != nil {
			return nil, err
		}
		return Done{}, nil

	case Symlink:
		target, err := rt.resolve(op.Target)
		if err != nil {
			return nil, err
		}
		link, err := rt.resolveTarget(op.Link)
		if err != nil {
			return nil, err
		}
		if err := makeSymlink(target, link, op.Dir); err != nil {
			return nil, err
		}
		return Done{}, nil
	}

	return nil, fs.ErrInvalid
}

// copyFile duplicates a regular file, carrying the source's permission
// bits onto the destination, and reports the bytes written.
func copyFile(from, to string) (int64, error) {
	src, err := os.Open(from)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, &fs.PathError{Op: "copy", Path: from, Err: fs.ErrInvalid}
	}

	dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}
	return n, nil
}
