// Package ranges parses textual byte-range specifications against a known
// content length. Parsing is pure: no I/O, no state.
package ranges

import (
	"errors"
	"strconv"
	"strings"
)

const unitPrefix = "bytes="

var (
	// ErrMalformed reports a specification that does not parse at all.
	// HTTP callers typically ignore the header and serve full content.
	ErrMalformed = errors.New("ranges: malformed byte-range specification")

	// ErrUnsatisfiable reports a specification that parsed but selects no
	// bytes of the resource. Callers must answer "range not satisfiable"
	// rather than fall back to full content.
	ErrUnsatisfiable = errors.New("ranges: unsatisfiable byte-range")
)

// ByteRange is an inclusive pair of byte offsets, 0 <= Start <= End < size.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// Parse validates a "bytes=" range header against the content length and
// returns the satisfiable ranges in textual order. Supported forms are
// "start-end", "start-" and "-suffixLength". Candidates that parse but do
// not fit the content are dropped; if none remain the whole specification
// is unsatisfiable. An end offset at or past the content length makes its
// candidate unsatisfiable rather than being clamped.
func Parse(header string, size int64) ([]ByteRange, error) {
	if size < 0 {
		return nil, ErrMalformed
	}
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), unitPrefix)
	if !ok {
		return nil, ErrMalformed
	}

	var out []ByteRange
	for _, part := range strings.Split(spec, ",") {
		r, satisfiable, err := parsePart(strings.TrimSpace(part), size)
		if err != nil {
			return nil, err
		}
		if satisfiable {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, ErrUnsatisfiable
	}
	return out, nil
}

func parsePart(part string, size int64) (ByteRange, bool, error) {
	dash := strings.IndexByte(part, '-')
	if dash < 0 {
		return ByteRange{}, false, ErrMalformed
	}
	first, last := part[:dash], part[dash+1:]

	// "-suffixLength": the final n bytes of the resource.
	if first == "" {
		n, err := strconv.ParseUint(last, 10, 63)
		if err != nil {
			return ByteRange{}, false, ErrMalformed
		}
		if n == 0 || size == 0 {
			return ByteRange{}, false, nil
		}
		start := size - int64(n)
		if start < 0 {
			start = 0
		}
		return ByteRange{Start: start, End: size - 1}, true, nil
	}

	start, err := strconv.ParseUint(first, 10, 63)
	if err != nil {
		return ByteRange{}, false, ErrMalformed
	}
	if int64(start) >= size {
		return ByteRange{}, false, nil
	}

	// "start-": open-ended, runs to the final byte.
	if last == "" {
		return ByteRange{Start: int64(start), End: size - 1}, true, nil
	}

	end, err := strconv.ParseUint(last, 10, 63)
	if err != nil {
		return ByteRange{}, false, ErrMalformed
	}
	if int64(end) >= size || start > end {
		return ByteRange{}, false, nil
	}
	return ByteRange{Start: int64(start), End: int64(end)}, true, nil
}
