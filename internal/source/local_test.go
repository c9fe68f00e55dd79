package source

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsgate/internal/security"
)

func newLocalStore(t *testing.T) (*Local, string) {
	t.Helper()
	dir := t.TempDir()
	root, err := security.NewRoot(dir)
	require.NoError(t, err)
	return NewLocal(root), root.Dir()
}

func TestLocalOpen(t *testing.T) {
	store, base := newLocalStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(base, "f.txt"), []byte("file body"), 0o644))

	f, err := store.Open(context.Background(), "f.txt")
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, int64(9), f.Size())
	assert.False(t, f.ModTime().IsZero())

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "file body", string(got))
}

func TestLocalOpenSeekable(t *testing.T) {
	store, base := newLocalStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(base, "f.txt"), []byte("0123456789"), 0o644))

	f, err := store.Open(context.Background(), "f.txt")
	require.NoError(t, err)
	defer f.Close()

	pos, err := f.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(got))
}

func TestLocalOpenErrors(t *testing.T) {
	store, base := newLocalStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(base, "d"), 0o755))

	t.Run("missing file", func(t *testing.T) {
		_, err := store.Open(context.Background(), "absent.txt")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("escape reads as missing", func(t *testing.T) {
		_, err := store.Open(context.Background(), "../etc/passwd")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := store.Open(context.Background(), "d")
		assert.ErrorIs(t, err, ErrIsDirectory)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := store.Open(ctx, "absent.txt")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
