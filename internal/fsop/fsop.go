// Package fsop defines the closed catalogue of filesystem operations and
// the router that dispatches them against the operating system. Path
// arguments pass through the confinement resolver before any OS call; with
// confinement disabled they are used verbatim.
package fsop

import (
	"io/fs"
	"os"
)

// OpenMode selects how Open positions and creates the target file.
type OpenMode string

const (
	Read              OpenMode = "read"
	AppendExisting    OpenMode = "append"
	CreateOrOverwrite OpenMode = "create"
	CreateOrAppend    OpenMode = "create_append"
	CreateNew         OpenMode = "create_new"
)

// flags maps the mode onto os.OpenFile flags. The zero value is invalid.
func (m OpenMode) flags() (int, error) {
	switch m {
	case Read:
		return os.O_RDONLY, nil
	case AppendExisting:
		return os.O_WRONLY | os.O_APPEND, nil
	case CreateOrOverwrite:
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case CreateOrAppend:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case CreateNew:
		return os.O_RDWR | os.O_CREATE | os.O_EXCL, nil
	default:
		return 0, fs.ErrInvalid
	}
}

// creates reports whether the mode may bring the target into existence,
// which decides how its path is confined.
func (m OpenMode) creates() bool {
	switch m {
	case CreateOrOverwrite, CreateOrAppend, CreateNew:
		return true
	}
	return false
}

// Op is the closed set of operation descriptors. Each variant carries
// root-relative path fields plus its parameters; descriptors are built per
// request and consumed once.
type Op interface {
	op()
}

// Copy duplicates a regular file, reporting the byte count.
type Copy struct {
	From string
	To   string
}

// CreateDir creates a directory, with optional parent creation.
type CreateDir struct {
	Path      string
	Recursive bool
}

// Exists checks whether a path resolves to an existing entry.
type Exists struct {
	Path string
}

// FollowLink reads the target a symbolic link points to.
type FollowLink struct {
	Path string
}

// GetMetadata stats a path, optionally without following a final symlink.
type GetMetadata struct {
	Path           string
	FollowSymlinks bool
}

// HardLink creates a hard link Dst referring to Src.
type HardLink struct {
	Src string
	Dst string
}

// Open opens a file in the given mode. Perm applies to created files; zero
// means 0644.
type Open struct {
	Path string
	Mode OpenMode
	Perm fs.FileMode
}

// ReadDir lists a directory.
type ReadDir struct {
	Path string
}

// RemoveDir removes a directory, recursively when asked.
type RemoveDir struct {
	Path      string
	Recursive bool
}

// RemoveFile removes a file or symbolic link, never a directory.
type RemoveFile struct {
	Path string
}

// Rename moves an entry within the root.
type Rename struct {
	From string
	To   string
}

// SetPermissions changes an entry's permission bits.
type SetPermissions struct {
	Path string
	Perm fs.FileMode
}

// Symlink creates a symbolic link at Link pointing to Target. Dir hints
// that the target is a directory, which only matters on platforms with
// distinct directory symlinks.
type Symlink struct {
	Target string
	Link   string
	Dir    bool
}

func (Copy) op()           {}
func (CreateDir) op()      {}
func (Exists) op()         {}
func (FollowLink) op()     {}
func (GetMetadata) op()    {}
func (HardLink) op()       {}
func (Open) op()           {}
func (ReadDir) op()        {}
func (RemoveDir) op()      {}
func (RemoveFile) op()     {}
func (Rename) op()         {}
func (SetPermissions) op() {}
func (Symlink) op()        {}

// Mutates reports whether the operation changes filesystem state. Serving
// layers use it to enforce read-only configurations.
func Mutates(op Op) bool {
	switch op := op.(type) {
	case Copy, CreateDir, HardLink, RemoveDir, RemoveFile, Rename, SetPermissions, Symlink:
		return true
	case Open:
		return op.Mode != Read
	}
	return false
}

// Response is the closed set of operation outcomes.
type Response interface {
	response()
}

// Done reports success with nothing else to say.
type Done struct{}

// Copied reports the number of bytes a Copy transferred.
type Copied struct {
	Bytes int64
}

// File carries the handle an Open produced. The caller owns it.
type File struct {
	Handle *os.File
}

// Directory carries a listing.
type Directory struct {
	Entries []fs.DirEntry
}

// Metadata carries a stat record.
type Metadata struct {
	Info fs.FileInfo
}

// Presence answers an existence check.
type Presence struct {
	Exists bool
}

// PointsTo carries a symbolic link's target.
type PointsTo struct {
	Target string
}

func (Done) response()      {}
func (Copied) response()    {}
func (File) response()      {}
func (Directory) response() {}
func (Metadata) response()  {}
func (Presence) response()  {}
func (PointsTo) response()  {}
