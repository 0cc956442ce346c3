package types

// Gender values accepted for a user. Absence is represented by a nil
// pointer, never by an empty string.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// ValidGender reports whether g is one of the accepted gender values.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}

// User represents one row of the users table.
type User struct {
	// ID is the engine-assigned identifier. Monotonic, never reused.
	ID int `json:"id"`

	// Name is the user's display name.
	Name string `json:"name"`

	// Email is unique across all users, case-insensitively.
	Email string `json:"email"`

	// Gender is optional; nil maps to NULL.
	Gender *string `json:"gender,omitempty"`

	// Password is the optional plaintext credential. It is only ever
	// populated on the login-match path and is never serialized.
	Password *string `json:"-"`
}

// AuthUser is the session projection of a User: the subset persisted as
// the "currently logged in" record. It is a point-in-time copy and is not
// kept in sync with later edits to the row it came from.
type AuthUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LegacyUser is the flat pre-relational user shape consumed once during
// the bootstrap import. Unknown or missing optional fields become NULLs.
type LegacyUser struct {
	ID       *int    `json:"id,omitempty"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Gender   *string `json:"gender,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserPatch is a partial update of a User. Nil fields keep the row's
// existing value; there is no way to null out a previously set field.
type UserPatch struct {
	Name     *string
	Email    *string
	Gender   *string
	Password *string
}
