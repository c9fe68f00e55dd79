package source

import (
	"context"
	"io/fs"
	"os"
	"time"

	"fsgate/internal/security"
)

// Local serves files confined to a root directory.
type Local struct {
	root *security.Root
}

// NewLocal returns a store over the given root.
func NewLocal(root *security.Root) *Local {
	return &Local{root: root}
}

// Open resolves the name through the confinement root and opens it.
// Rejections surface as fs.ErrNotExist; directories as ErrIsDirectory.
func (l *Local) Open(ctx context.Context, name string) (File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.root.Resolve(name)
	if err != nil {
		return nil, fs.ErrNotExist
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrIsDirectory
	}
	return &localFile{File: f, info: info}, nil
}

type localFile struct {
	*os.File
	info fs.FileInfo
}

func (f *localFile) Size() int64 {
	return f.info.Size()
}

func (f *localFile) ModTime() time.Time {
	return f.info.ModTime()
}
