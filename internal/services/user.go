package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yaseralshikh/usermgr/types"
)

// ErrInvalidInput is returned when required fields are missing or an
// enumerated field carries an unknown value. Validation happens here,
// upstream of the repository, so constraint errors out of the engine
// always mean real conflicts.
var ErrInvalidInput = errors.New("invalid input")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error)
	Delete(ctx context.Context, id int) error
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetForLogin(ctx context.Context, email, password string) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.TrimSpace(user.Email)
	if user.Name == "" || user.Email == "" {
		return types.User{}, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	if user.Gender != nil && !types.ValidGender(*user.Gender) {
		return types.User{}, fmt.Errorf("%w: unknown gender %q", ErrInvalidInput, *user.Gender)
	}
	return s.repo.Create(ctx, user)
}

func (s *UserService) Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return types.User{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) == "" {
		return types.User{}, fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}
	if patch.Gender != nil && !types.ValidGender(*patch.Gender) {
		return types.User{}, fmt.Errorf("%w: unknown gender %q", ErrInvalidInput, *patch.Gender)
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) GetForLogin(ctx context.Context, email, password string) (types.User, error) {
	return s.repo.GetForLogin(ctx, email, password)
}
