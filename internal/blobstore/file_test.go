package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	backend, err := NewFileBackend(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	return NewStore(backend)
}

func TestFileBackendRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte("hello")))

	data, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func TestFileBackendGetMissingReturnsErrNotExist(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Get(ctx, "never-written")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestFileBackendSetOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte("first")))
	require.NoError(t, store.Set(ctx, "k", []byte("second")))

	data, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("second"), data)
}

func TestFileBackendDeleteMissingIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Delete(ctx, "never-written"))
}

func TestFileBackendDeleteRemovesBlob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte("x")))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestFileBackendKeyCannotEscapeBaseDir(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "blobs")
	backend, err := NewFileBackend(base)
	require.NoError(t, err)

	require.NoError(t, backend.Set(ctx, "../outside", []byte("x")))

	entries, err := os.ReadDir(filepath.Dir(base))
	require.NoError(t, err)
	require.Len(t, entries, 1, "nothing may be written outside the blob dir")
}
