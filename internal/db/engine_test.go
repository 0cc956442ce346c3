package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yaseralshikh/usermgr/internal/blobstore"
	"github.com/yaseralshikh/usermgr/types"
)

func newTestBlobs(t *testing.T) *blobstore.Store {
	t.Helper()

	backend, err := blobstore.NewFileBackend(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	return blobstore.NewStore(backend)
}

func newTestEngine(t *testing.T, blobs *blobstore.Store) *Engine {
	t.Helper()

	engine := NewEngine(blobs, t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() {
		_ = engine.Close()
	})
	return engine
}

type userRow struct {
	id       int
	name     string
	email    string
	gender   string
	password string
}

func readRows(t *testing.T, engine *Engine) []userRow {
	t.Helper()

	ctx := context.Background()
	dbc, err := engine.Acquire(ctx)
	require.NoError(t, err)

	rows, err := dbc.QueryContext(ctx,
		`SELECT id, name, email, COALESCE(gender, ''), COALESCE(password, '') FROM users ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var out []userRow
	for rows.Next() {
		var r userRow
		require.NoError(t, rows.Scan(&r.id, &r.name, &r.email, &r.gender, &r.password))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func mutateInsert(name, email string) func(dbc *sql.DB) error {
	return func(dbc *sql.DB) error {
		_, err := dbc.Exec(`INSERT INTO users (name, email) VALUES (?, ?)`, name, email)
		return err
	}
}

func TestBootstrapSeedsDemoUserOnFreshStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := newTestBlobs(t)
	engine := newTestEngine(t, blobs)

	rows := readRows(t, engine)
	require.Len(t, rows, 1)
	require.Equal(t, "Demo User", rows[0].name)
	require.Equal(t, "demo@user.test", rows[0].email)
	require.Equal(t, "male", rows[0].gender)
	require.Equal(t, "demo123", rows[0].password)

	// Seeding persists, so a snapshot must exist immediately.
	_, err := blobs.Get(ctx, SnapshotKey)
	require.NoError(t, err)
}

func TestAcquireMemoizesHandle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := newTestEngine(t, newTestBlobs(t))

	first, err := engine.Acquire(ctx)
	require.NoError(t, err)
	second, err := engine.Acquire(ctx)
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestBootstrapIsIdempotent(t *testing.T) {
	t.Parallel()

	blobs := newTestBlobs(t)

	engine1 := newTestEngine(t, blobs)
	firstRows := readRows(t, engine1)
	require.NoError(t, engine1.Close())

	// A second process over the same store must not seed or import again.
	engine2 := newTestEngine(t, blobs)
	secondRows := readRows(t, engine2)

	require.Equal(t, firstRows, secondRows)
}

func TestBootstrapImportsLegacyUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := newTestBlobs(t)

	gender := types.GenderFemale
	password := "s3cret"
	legacy := []types.LegacyUser{
		{Name: "Alice", Email: "alice@example.com", Gender: &gender, Password: &password},
		{Name: "Bob", Email: "bob@example.com"},
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, blobs.Set(ctx, LegacyKey, raw))

	engine := newTestEngine(t, blobs)
	rows := readRows(t, engine)

	require.Len(t, rows, 2, "imported rows suppress the demo seed")
	require.Equal(t, "Alice", rows[0].name)
	require.Equal(t, "female", rows[0].gender)
	require.Equal(t, "s3cret", rows[0].password)
	require.Equal(t, "Bob", rows[1].name)
	require.Empty(t, rows[1].gender)
	require.Empty(t, rows[1].password)
}

func TestBootstrapToleratesMalformedLegacyData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := newTestBlobs(t)
	require.NoError(t, blobs.Set(ctx, LegacyKey, []byte("this is not json")))

	engine := newTestEngine(t, blobs)
	rows := readRows(t, engine)

	// Import is abandoned, bootstrap continues, demo seed applies.
	require.Len(t, rows, 1)
	require.Equal(t, "demo@user.test", rows[0].email)
}

func TestBootstrapStopsLegacyImportOnFirstBadRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := newTestBlobs(t)

	legacy := []types.LegacyUser{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Dupe", Email: "ALICE@example.com"},
		{Name: "Carol", Email: "carol@example.com"},
	}
	raw, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, blobs.Set(ctx, LegacyKey, raw))

	engine := newTestEngine(t, blobs)
	rows := readRows(t, engine)

	// The duplicate aborts the remainder; the partial state is kept.
	require.Len(t, rows, 1)
	require.Equal(t, "Alice", rows[0].name)
}

func TestCorruptSnapshotIsFatal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := newTestBlobs(t)
	require.NoError(t, blobs.Set(ctx, SnapshotKey, []byte("garbage, not a database")))

	engine := newTestEngine(t, blobs)

	_, err := engine.Acquire(ctx)
	require.Error(t, err)

	// The failure is memoized; no silent fallback to an empty database.
	_, err = engine.Acquire(ctx)
	require.Error(t, err)
}

func TestPersistWritesSnapshotReadableByFreshEngine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := newTestBlobs(t)

	engine1 := newTestEngine(t, blobs)
	err := engine1.Mutate(ctx, mutateInsert("Extra", "extra@example.com"))
	require.NoError(t, err)
	before := readRows(t, engine1)
	require.NoError(t, engine1.Close())

	engine2 := newTestEngine(t, blobs)
	after := readRows(t, engine2)
	require.Equal(t, before, after)
}
