// Package source provides seekable byte sources for streaming sessions.
// A store maps request names to sources; the local store serves files
// confined to a root, the S3 store serves objects through ranged reads.
package source

import (
	"context"
	"errors"
	"io"
	"time"

	"fsgate/internal/stream"
)

// ErrIsDirectory reports that the named entry is a directory and cannot be
// streamed. Serving layers answer it with a listing instead.
var ErrIsDirectory = errors.New("source: is a directory")

// File is a seekable source plus the metadata the transport layer needs
// for conditional and ranged responses.
type File interface {
	stream.Source
	io.Closer
	Size() int64
	ModTime() time.Time
}

// Store opens named content as seekable sources. Names are root-relative,
// forward-slash separated, already syntax-validated.
type Store interface {
	Open(ctx context.Context, name string) (File, error)
}
