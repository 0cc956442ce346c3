package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yaseralshikh/usermgr/internal/db"
	"github.com/yaseralshikh/usermgr/types"
)

// UserRepository handles persistence for users. Every mutation runs under
// the engine lock and triggers a full-snapshot persist before returning;
// reads never persist.
type UserRepository struct {
	engine *db.Engine
}

func NewUserRepository(engine *db.Engine) *UserRepository {
	return &UserRepository{engine: engine}
}

// List returns all users ordered by id ascending. Passwords are never
// included. An empty store yields an empty slice, not an error.
func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	dbc, err := r.engine.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT id, name, email, gender
		FROM users
		ORDER BY id ASC`
	rows, err := dbc.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts a new user and returns the row with its engine-assigned
// id. A duplicate email fails with ErrEmailTaken and leaves the table and
// snapshot unchanged.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	var created types.User
	err := r.engine.Mutate(ctx, func(dbc *sql.DB) error {
		const query = `
			INSERT INTO users (name, email, gender, password)
			VALUES (?, ?, ?, ?)`
		result, err := dbc.ExecContext(ctx, query, user.Name, user.Email, user.Gender, user.Password)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		created = types.User{
			ID:     int(id),
			Name:   user.Name,
			Email:  user.Email,
			Gender: user.Gender,
		}
		return nil
	})
	if err != nil {
		return types.User{}, err
	}
	return created, nil
}

// Update applies a partial patch to the row with the given id. Nil patch
// fields keep their previous value. Fails with ErrNotFound when no such
// row exists and ErrEmailTaken when the patched email collides.
func (r *UserRepository) Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error) {
	var updated types.User
	err := r.engine.Mutate(ctx, func(dbc *sql.DB) error {
		const current = `
			SELECT name, email, gender, password
			FROM users
			WHERE id = ?`
		var (
			name, email      string
			gender, password sql.NullString
		)
		err := dbc.QueryRowContext(ctx, current, id).Scan(&name, &email, &gender, &password)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		// Resolve the patch field by field before issuing the write.
		resolved := types.User{
			ID:       id,
			Name:     name,
			Email:    email,
			Gender:   nullableString(gender),
			Password: nullableString(password),
		}
		if patch.Name != nil {
			resolved.Name = *patch.Name
		}
		if patch.Email != nil {
			resolved.Email = *patch.Email
		}
		if patch.Gender != nil {
			resolved.Gender = patch.Gender
		}
		if patch.Password != nil {
			resolved.Password = patch.Password
		}

		const update = `
			UPDATE users
			SET name = ?, email = ?, gender = ?, password = ?
			WHERE id = ?`
		if _, err := dbc.ExecContext(ctx, update, resolved.Name, resolved.Email, resolved.Gender, resolved.Password, id); err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}

		resolved.Password = nil
		updated = resolved
		return nil
	})
	if err != nil {
		return types.User{}, err
	}
	return updated, nil
}

// Delete removes the row with the given id. A missing id is a no-op, not
// an error; the snapshot is persisted either way.
func (r *UserRepository) Delete(ctx context.Context, id int) error {
	return r.engine.Mutate(ctx, func(dbc *sql.DB) error {
		_, err := dbc.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		return err
	})
}

// GetByEmail finds a user by case-insensitive exact email match.
// Read-only; returns ErrNotFound when absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	dbc, err := r.engine.Acquire(ctx)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		SELECT id, name, email, gender
		FROM users
		WHERE LOWER(email) = LOWER(?)
		LIMIT 1`
	user, err := scanUser(dbc.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// GetForLogin finds a user by case-insensitive email and exact password
// match. This is the only path that consumes the stored password; the
// returned row still omits it. Read-only; returns ErrNotFound on any
// mismatch.
func (r *UserRepository) GetForLogin(ctx context.Context, email, password string) (types.User, error) {
	dbc, err := r.engine.Acquire(ctx)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		SELECT id, name, email, gender
		FROM users
		WHERE LOWER(email) = LOWER(?) AND password = ?
		LIMIT 1`
	user, err := scanUser(dbc.QueryRowContext(ctx, query, email, password))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var (
		user   types.User
		gender sql.NullString
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &gender); err != nil {
		return types.User{}, err
	}
	user.Gender = nullableString(gender)
	return user, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	s := v.String
	return &s
}
