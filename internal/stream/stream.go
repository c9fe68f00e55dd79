// Package stream turns a seekable byte source into a demand-driven,
// single-pass sequence of chunks covering a requested sub-range.
package stream

import (
	"errors"
	"io"

	"fsgate/internal/ranges"
)

// DefaultCapacity is the chunk size used when the caller passes zero.
const DefaultCapacity = 64 * 1024

// Source is the capability set a session needs from its input.
type Source interface {
	io.Reader
	io.Seeker
}

// Session streams a bounded sub-range of a source as chunks of at most the
// configured capacity, summing to exactly the range length. It is finite
// and non-restartable: after the terminal result it never yields data
// again. A session owns its source exclusively; Close releases the source
// when it is an io.Closer and must be called on every exit path.
type Session struct {
	src       Source
	buf       []byte
	remaining int64 // bytes left to deliver, -1 when unbounded
	pending   error // terminal error held back until produced bytes are delivered
	done      bool
	closed    bool
}

// Open seeks the source to the start of the range and returns a session
// delivering exactly the range's length in chunks. A nil range streams the
// whole source from its current position. On seek failure the source is
// released before the error is returned.
func Open(src Source, capacity int, r *ranges.ByteRange) (*Session, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Session{src: src, buf: make([]byte, capacity), remaining: -1}
	if r != nil {
		if _, err := src.Seek(r.Start, io.SeekStart); err != nil {
			s.Close()
			return nil, err
		}
		s.remaining = r.Length()
	}
	return s, nil
}

// Next returns the next chunk, valid until the following call. io.EOF is
// the normal terminal result; any other error is the terminal result of a
// failed read. Bytes read before a mid-read failure are delivered first,
// with the failure surfacing on the subsequent call.
func (s *Session) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}
	if s.pending != nil {
		s.done = true
		return nil, s.pending
	}

	limit := int64(len(s.buf))
	if s.remaining >= 0 && s.remaining < limit {
		limit = s.remaining
	}
	if limit == 0 {
		s.done = true
		return nil, io.EOF
	}

	n, err := s.src.Read(s.buf[:limit])
	if n > 0 {
		if s.remaining > 0 {
			s.remaining -= int64(n)
		}
		if err != nil {
			s.pending = s.terminal(err)
		}
		return s.buf[:n], nil
	}

	s.done = true
	if err == nil {
		err = io.ErrNoProgress
	}
	return nil, s.terminal(err)
}

// terminal normalizes a read error into the session's terminal result. An
// EOF with bytes still owed means the source shrank underneath the range.
func (s *Session) terminal(err error) error {
	if errors.Is(err, io.EOF) && s.remaining > 0 {
		return io.ErrUnexpectedEOF
	}
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return err
}

// WriteTo drains the remaining chunks into w and reports the byte total.
// Normal completion returns a nil error.
func (s *Session) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		chunk, err := s.Next()
		if len(chunk) > 0 {
			n, werr := w.Write(chunk)
			total += int64(n)
			if werr != nil {
				return total, werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
	}
}

// Close marks the session exhausted and releases the underlying source.
// It is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.done = true
	if c, ok := s.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
