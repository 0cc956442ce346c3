package store

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when a create or update collides with the
// case-insensitive unique constraint on email.
var ErrEmailTaken = errors.New("email already taken")

// isUniqueViolation reports whether err is the engine's unique-constraint
// failure. The email column carries the only unique constraint besides
// the rowid, so no further inspection is needed.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT
}
