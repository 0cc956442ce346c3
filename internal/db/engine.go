package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/yaseralshikh/usermgr/internal/blobstore"
	_ "modernc.org/sqlite"
)

// Blob store keys. SnapshotKey holds the serialized database; LegacyKey
// holds the pre-relational flat user list consumed once at bootstrap.
const (
	SnapshotKey = "um_sqlite_db_v1"
	LegacyKey   = "users"
)

const (
	engineFileName = "users.db"

	pragmaJournalModeDelete = `PRAGMA journal_mode=DELETE`
	pragmaBusyTimeout       = `PRAGMA busy_timeout=5000`
	pragmaForeignKeysOn     = `PRAGMA foreign_keys=ON`
)

// Engine owns the embedded SQLite database and its snapshot lifecycle.
//
// The live database is a scratch file under the data dir; the blob store
// snapshot is the only durable copy. Acquire initializes at most once per
// process (result and error are both memoized), loading the snapshot if
// one exists and running bootstrap. Persist serializes the whole database
// back to the blob store; it runs after every mutation, never after reads.
type Engine struct {
	store *blobstore.Store
	log   *slog.Logger
	path  string

	// mu serializes mutation+persist pairs. The contract assumes a single
	// writer; on a parallel runtime this lock preserves that assumption.
	mu sync.Mutex

	once sync.Once
	db   *sql.DB
	err  error
}

// NewEngine constructs an Engine over the given blob store. The scratch
// database file lives under dataDir. Nothing is opened until Acquire.
func NewEngine(store *blobstore.Store, dataDir string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store: store,
		log:   logger,
		path:  filepath.Join(dataDir, engineFileName),
	}
}

// Acquire returns the shared database handle, initializing it on first
// call. A corrupt or unreadable snapshot is fatal: the error is returned,
// memoized, and there is no fallback to an empty database.
func (e *Engine) Acquire(ctx context.Context) (*sql.DB, error) {
	e.once.Do(func() {
		e.db, e.err = e.initialize(ctx)
	})
	if e.err != nil {
		return nil, fmt.Errorf("acquire engine: %w", e.err)
	}
	return e.db, nil
}

// Mutate runs fn under the engine lock and, when fn succeeds, persists
// the resulting database state before returning. A failed fn leaves the
// snapshot untouched.
func (e *Engine) Mutate(ctx context.Context, fn func(db *sql.DB) error) error {
	dbc, err := e.Acquire(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(dbc); err != nil {
		return err
	}
	return e.persist(ctx)
}

// Persist serializes the entire database to the blob store under
// SnapshotKey, overwriting any prior snapshot.
func (e *Engine) Persist(ctx context.Context) error {
	if _, err := e.Acquire(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persist(ctx)
}

// Close releases the database handle. The scratch file is left in place;
// it is rebuilt from the snapshot on the next process start.
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func (e *Engine) initialize(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(e.path), 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	raw, err := e.store.Get(ctx, SnapshotKey)
	switch {
	case errors.Is(err, blobstore.ErrNotExist):
		// First run: start from an empty database.
		if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("clear stale engine file: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("load snapshot: %w", err)
	default:
		if err := os.WriteFile(e.path, raw, 0o600); err != nil {
			return nil, fmt.Errorf("restore snapshot: %w", err)
		}
	}

	dbc, err := sql.Open("sqlite", e.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single connection: pragmas stick, and the cooperative single-writer
	// model never needs more.
	dbc.SetMaxOpenConns(1)
	dbc.SetMaxIdleConns(1)

	if err := configureSQLite(dbc); err != nil {
		_ = dbc.Close()
		return nil, err
	}

	if err := verifySnapshot(ctx, dbc); err != nil {
		_ = dbc.Close()
		return nil, err
	}

	if err := e.bootstrap(ctx, dbc); err != nil {
		_ = dbc.Close()
		return nil, err
	}

	return dbc, nil
}

func configureSQLite(dbc *sql.DB) error {
	pragmas := []string{pragmaJournalModeDelete, pragmaBusyTimeout, pragmaForeignKeysOn}
	for _, stmt := range pragmas {
		if _, err := dbc.Exec(stmt); err != nil {
			return fmt.Errorf("configure sqlite %q: %w", stmt, err)
		}
	}
	return nil
}

// verifySnapshot rejects a corrupt snapshot up front instead of failing
// on some later query.
func verifySnapshot(ctx context.Context, dbc *sql.DB) error {
	var result string
	if err := dbc.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("snapshot is not a valid database: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("snapshot failed integrity check: %s", result)
	}
	return nil
}

// persist assumes e.mu is held (or the engine is not yet published).
// journal_mode=DELETE keeps the database in a single file, so the file
// bytes after a committed transaction are the serialized database.
func (e *Engine) persist(ctx context.Context) error {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return fmt.Errorf("export database: %w", err)
	}
	if err := e.store.Set(ctx, SnapshotKey, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
