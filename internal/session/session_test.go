package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yaseralshikh/usermgr/internal/blobstore"
	"github.com/yaseralshikh/usermgr/types"
)

func newTestSessionStore(t *testing.T) (*Store, *blobstore.Store) {
	t.Helper()

	backend, err := blobstore.NewFileBackend(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	blobs := blobstore.NewStore(backend)
	return NewStore(blobs, "test-secret"), blobs
}

func TestSessionRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sessions, _ := newTestSessionStore(t)

	user := types.AuthUser{ID: 7, Name: "Jane", Email: "jane@x.com"}
	require.NoError(t, sessions.Save(ctx, user))

	current, err := sessions.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	require.Equal(t, user, *current)
}

func TestCurrentWithoutSessionReturnsNil(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sessions, _ := newTestSessionStore(t)

	current, err := sessions.Current(ctx)
	require.NoError(t, err)
	require.Nil(t, current)
}

func TestClearRemovesSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sessions, _ := newTestSessionStore(t)

	require.NoError(t, sessions.Save(ctx, types.AuthUser{ID: 1, Name: "A", Email: "a@x.com"}))
	require.NoError(t, sessions.Clear(ctx))

	current, err := sessions.Current(ctx)
	require.NoError(t, err)
	require.Nil(t, current)
}

func TestTamperedRecordReadsAsLoggedOutAndIsCleared(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sessions, blobs := newTestSessionStore(t)

	require.NoError(t, blobs.Set(ctx, Key, []byte("not a signed token")))

	current, err := sessions.Current(ctx)
	require.NoError(t, err)
	require.Nil(t, current)

	// The bad record is dropped, not kept around.
	_, err = blobs.Get(ctx, Key)
	require.ErrorIs(t, err, blobstore.ErrNotExist)
}

func TestRecordSignedWithDifferentSecretIsRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend, err := blobstore.NewFileBackend(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	blobs := blobstore.NewStore(backend)

	writer := NewStore(blobs, "secret-a")
	reader := NewStore(blobs, "secret-b")

	require.NoError(t, writer.Save(ctx, types.AuthUser{ID: 1, Name: "A", Email: "a@x.com"}))

	current, err := reader.Current(ctx)
	require.NoError(t, err)
	require.Nil(t, current)
}
