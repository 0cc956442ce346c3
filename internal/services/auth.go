package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yaseralshikh/usermgr/internal/session"
	"github.com/yaseralshikh/usermgr/internal/store"
	"github.com/yaseralshikh/usermgr/types"
)

// ErrInvalidCredentials is returned when login finds no user with the
// given email and password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService implements local credential auth over the user repository
// and the persisted session record. Successful login or registration
// saves the AuthUser projection; it is a copy made at that moment and is
// not re-synced when the underlying row changes later.
type AuthService struct {
	users    *UserService
	sessions *session.Store
}

func NewAuthService(users *UserService, sessions *session.Store) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
	}
}

// Login matches email (case-insensitive) and password (exact) against
// the stored users and opens a session for the match.
func (a *AuthService) Login(ctx context.Context, email, password string) (types.AuthUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.AuthUser{}, ErrInvalidCredentials
	}

	user, err := a.users.GetForLogin(ctx, email, password)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.AuthUser{}, ErrInvalidCredentials
		}
		return types.AuthUser{}, err
	}

	authUser := projectAuthUser(user)
	if err := a.sessions.Save(ctx, authUser); err != nil {
		return types.AuthUser{}, err
	}
	return authUser, nil
}

// Register creates a new account and opens a session for it. A duplicate
// email surfaces as store.ErrEmailTaken.
func (a *AuthService) Register(ctx context.Context, name, email, password string) (types.AuthUser, error) {
	if password == "" {
		return types.AuthUser{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	pw := password
	user, err := a.users.Create(ctx, types.User{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: &pw,
	})
	if err != nil {
		return types.AuthUser{}, err
	}

	authUser := projectAuthUser(user)
	if err := a.sessions.Save(ctx, authUser); err != nil {
		return types.AuthUser{}, err
	}
	return authUser, nil
}

// Logout clears the session record. Logging out while logged out is fine.
func (a *AuthService) Logout(ctx context.Context) error {
	return a.sessions.Clear(ctx)
}

// Current returns the logged-in user, or nil when there is none.
func (a *AuthService) Current(ctx context.Context) (*types.AuthUser, error) {
	return a.sessions.Current(ctx)
}

func projectAuthUser(user types.User) types.AuthUser {
	return types.AuthUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}
