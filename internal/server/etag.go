package server

import (
	"fmt"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
)

// etagFor derives a validator from the file's identity and the stat fields
// that change when its content changes.
func etagFor(name string, size int64, modTime time.Time) string {
	h := xxhash.New()
	io.WriteString(h, name)
	fmt.Fprintf(h, "|%d|%d", size, modTime.UnixNano())
	return fmt.Sprintf("\"%016x\"", h.Sum64())
}
