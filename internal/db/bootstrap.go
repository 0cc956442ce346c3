package db

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/yaseralshikh/usermgr/internal/blobstore"
	"github.com/yaseralshikh/usermgr/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Demo account inserted on a completely fresh store so the application is
// usable before any real user exists. Local single-user trust context only.
const (
	demoName     = "Demo User"
	demoEmail    = "demo@user.test"
	demoGender   = types.GenderMale
	demoPassword = "demo123"
)

// bootstrap runs exactly once per engine initialization: schema ensure,
// row count probe, best-effort legacy import, demo seed. It is additive
// only and never touches pre-existing rows, so re-running it against an
// already-initialized snapshot is a no-op.
func (e *Engine) bootstrap(ctx context.Context, dbc *sql.DB) error {
	if err := ensureSchema(dbc); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	count, err := countUsers(ctx, dbc)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}

	if count == 0 {
		if e.importLegacy(ctx, dbc) {
			if err := e.persist(ctx); err != nil {
				return err
			}
		}
		if count, err = countUsers(ctx, dbc); err != nil {
			return fmt.Errorf("count users: %w", err)
		}
	}

	if count == 0 {
		if err := e.seedDemoUser(ctx, dbc); err != nil {
			return fmt.Errorf("seed demo user: %w", err)
		}
		if err := e.persist(ctx); err != nil {
			return err
		}
	}

	return nil
}

// ensureSchema applies the embedded migrations. Schema failures are fatal
// and deliberately outside the legacy-import leniency boundary.
func ensureSchema(dbc *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(dbc, &migratesqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func countUsers(ctx context.Context, dbc *sql.DB) (int, error) {
	var count int
	err := dbc.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&count)
	return count, err
}

// importLegacy moves the flat pre-relational user list into rows, once.
// It is best-effort by contract: malformed legacy data is logged and
// abandoned, leaving whatever partial state resulted, and bootstrap
// continues either way. Returns true when any row was inserted.
func (e *Engine) importLegacy(ctx context.Context, dbc *sql.DB) bool {
	raw, err := e.store.Get(ctx, LegacyKey)
	if errors.Is(err, blobstore.ErrNotExist) {
		return false
	}
	if err != nil {
		e.log.Warn("legacy import: read failed, skipping", "error", err)
		return false
	}

	var legacy []types.LegacyUser
	if err := json.Unmarshal(raw, &legacy); err != nil {
		e.log.Warn("legacy import: malformed record list, skipping", "error", err)
		return false
	}

	inserted := 0
	for _, u := range legacy {
		_, err := dbc.ExecContext(ctx,
			`INSERT INTO users (name, email, gender, password) VALUES (?, ?, ?, ?)`,
			u.Name, u.Email, u.Gender, u.Password,
		)
		if err != nil {
			e.log.Warn("legacy import: insert failed, abandoning remainder",
				"email", u.Email, "imported", inserted, "error", err)
			break
		}
		inserted++
	}

	if inserted > 0 {
		e.log.Info("legacy import complete", "imported", inserted, "total", len(legacy))
	}
	return inserted > 0
}

func (e *Engine) seedDemoUser(ctx context.Context, dbc *sql.DB) error {
	_, err := dbc.ExecContext(ctx,
		`INSERT INTO users (name, email, gender, password) VALUES (?, ?, ?, ?)`,
		demoName, demoEmail, demoGender, demoPassword,
	)
	if err == nil {
		e.log.Info("seeded demo account", "email", demoEmail)
	}
	return err
}
