package stream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsgate/internal/ranges"
)

// trackedSource wraps a reader to observe Close and inject read failures.
type trackedSource struct {
	*bytes.Reader
	failAfter int // bytes to serve before failing, -1 to never fail
	served    int
	closed    bool
}

func newTracked(data []byte, failAfter int) *trackedSource {
	return &trackedSource{Reader: bytes.NewReader(data), failAfter: failAfter}
}

var errDisk = errors.New("disk gone")

func (s *trackedSource) Read(p []byte) (int, error) {
	if s.failAfter >= 0 && s.served >= s.failAfter {
		return 0, errDisk
	}
	if s.failAfter >= 0 && s.served+len(p) > s.failAfter {
		n, _ := s.Reader.Read(p[:s.failAfter-s.served])
		s.served += n
		return n, errDisk
	}
	n, err := s.Reader.Read(p)
	s.served += n
	return n, err
}

func (s *trackedSource) Close() error {
	s.closed = true
	return nil
}

// drain collects every chunk until the terminal result, checking that no
// chunk exceeds the capacity.
func drain(t *testing.T, s *Session, capacity int) ([]byte, error) {
	t.Helper()
	var got []byte
	for {
		chunk, err := s.Next()
		assert.LessOrEqual(t, len(chunk), capacity)
		got = append(got, chunk...)
		if err != nil {
			return got, err
		}
	}
}

func TestSessionFullContent(t *testing.T) {
	data := []byte(strings.Repeat("abcdefgh", 100))

	for _, capacity := range []int{1, 7, 64, len(data), len(data) * 2} {
		src := newTracked(data, -1)
		sess, err := Open(src, capacity, nil)
		require.NoError(t, err)

		got, terminal := drain(t, sess, capacity)
		assert.ErrorIs(t, terminal, io.EOF)
		assert.Equal(t, data, got)

		require.NoError(t, sess.Close())
		assert.True(t, src.closed)
	}
}

func TestSessionRangedContent(t *testing.T) {
	data := []byte("0123456789abcdefghij")

	tests := []struct {
		name string
		r    ranges.ByteRange
		want string
	}{
		{"prefix", ranges.ByteRange{Start: 0, End: 4}, "01234"},
		{"interior", ranges.ByteRange{Start: 5, End: 14}, "56789abcde"},
		{"suffix", ranges.ByteRange{Start: 15, End: 19}, "fghij"},
		{"single byte", ranges.ByteRange{Start: 9, End: 9}, "9"},
		{"whole", ranges.ByteRange{Start: 0, End: 19}, "0123456789abcdefghij"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, capacity := range []int{1, 3, 64} {
				sess, err := Open(newTracked(data, -1), capacity, &tt.r)
				require.NoError(t, err)

				got, terminal := drain(t, sess, capacity)
				assert.ErrorIs(t, terminal, io.EOF)
				assert.Equal(t, tt.want, string(got), "capacity %d", capacity)
				assert.NoError(t, sess.Close())
			}
		})
	}
}

func TestSessionExactRangeLength(t *testing.T) {
	// The source keeps going past the range end; the session must stop at
	// exactly the requested length anyway.
	data := bytes.Repeat([]byte("x"), 1000)
	r := &ranges.ByteRange{Start: 100, End: 299}

	sess, err := Open(newTracked(data, -1), 64, r)
	require.NoError(t, err)
	defer sess.Close()

	got, terminal := drain(t, sess, 64)
	assert.ErrorIs(t, terminal, io.EOF)
	assert.Len(t, got, 200)
}

func TestSessionDefaultCapacity(t *testing.T) {
	data := bytes.Repeat([]byte("y"), DefaultCapacity+10)

	sess, err := Open(newTracked(data, -1), 0, nil)
	require.NoError(t, err)
	defer sess.Close()

	chunk, err := sess.Next()
	require.NoError(t, err)
	assert.Len(t, chunk, DefaultCapacity)
}

func TestSessionMidReadFailure(t *testing.T) {
	data := []byte(strings.Repeat("z", 500))
	src := newTracked(data, 200)

	sess, err := Open(src, 64, nil)
	require.NoError(t, err)
	defer sess.Close()

	got, terminal := drain(t, sess, 64)
	assert.ErrorIs(t, terminal, errDisk)
	assert.Len(t, got, 200, "bytes read before the failure are delivered")

	// Terminal result is sticky.
	chunk, err := sess.Next()
	assert.Nil(t, chunk)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSessionPartialReadThenFailure(t *testing.T) {
	// The failing read itself returns bytes; they surface as a chunk first
	// and the error follows on the next call.
	src := newTracked([]byte("0123456789"), 5)

	sess, err := Open(src, 64, nil)
	require.NoError(t, err)
	defer sess.Close()

	chunk, err := sess.Next()
	require.NoError(t, err)
	assert.Equal(t, "01234", string(chunk))

	chunk, err = sess.Next()
	assert.Nil(t, chunk)
	assert.ErrorIs(t, err, errDisk)
}

func TestSessionTruncatedSource(t *testing.T) {
	// Range promises more bytes than the source holds.
	data := []byte("short")
	r := &ranges.ByteRange{Start: 0, End: 99}

	sess, err := Open(newTracked(data, -1), 64, r)
	require.NoError(t, err)
	defer sess.Close()

	got, terminal := drain(t, sess, 64)
	assert.ErrorIs(t, terminal, io.ErrUnexpectedEOF)
	assert.Equal(t, "short", string(got))
}

func TestSessionSeekFailureReleasesSource(t *testing.T) {
	src := newTracked([]byte("abc"), -1)
	r := &ranges.ByteRange{Start: -1, End: 2} // bytes.Reader rejects negative offsets

	sess, err := Open(src, 64, r)
	require.Error(t, err)
	assert.Nil(t, sess)
	assert.True(t, src.closed)
}

func TestSessionCloseIdempotent(t *testing.T) {
	src := newTracked([]byte("abc"), -1)
	sess, err := Open(src, 64, nil)
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	assert.True(t, src.closed)

	chunk, err := sess.Next()
	assert.Nil(t, chunk)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSessionEmptyRangeOfEmptySource(t *testing.T) {
	sess, err := Open(newTracked(nil, -1), 64, nil)
	require.NoError(t, err)
	defer sess.Close()

	chunk, err := sess.Next()
	assert.Empty(t, chunk)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteTo(t *testing.T) {
	t.Run("full drain", func(t *testing.T) {
		data := []byte(strings.Repeat("w", 300))
		sess, err := Open(newTracked(data, -1), 64, nil)
		require.NoError(t, err)
		defer sess.Close()

		var buf bytes.Buffer
		n, err := sess.WriteTo(&buf)
		require.NoError(t, err)
		assert.Equal(t, int64(300), n)
		assert.Equal(t, data, buf.Bytes())
	})

	t.Run("ranged drain", func(t *testing.T) {
		sess, err := Open(newTracked([]byte("0123456789"), -1), 3, &ranges.ByteRange{Start: 2, End: 7})
		require.NoError(t, err)
		defer sess.Close()

		var buf bytes.Buffer
		n, err := sess.WriteTo(&buf)
		require.NoError(t, err)
		assert.Equal(t, int64(6), n)
		assert.Equal(t, "234567", buf.String())
	})

	t.Run("read failure propagates with partial total", func(t *testing.T) {
		sess, err := Open(newTracked(bytes.Repeat([]byte("q"), 500), 128), 64, nil)
		require.NoError(t, err)
		defer sess.Close()

		var buf bytes.Buffer
		n, err := sess.WriteTo(&buf)
		assert.ErrorIs(t, err, errDisk)
		assert.Equal(t, int64(128), n)
	})
}
