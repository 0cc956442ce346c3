package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yaseralshikh/usermgr/internal/blobstore"
	"github.com/yaseralshikh/usermgr/types"
)

// Key is the blob store key of the "currently logged in" record.
const Key = "authUser"

// Claims carries the AuthUser projection inside the signed session
// record. Subject holds the user id.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Store persists the current-session record in the blob store as a
// signed token. The record is a point-in-time copy of one user row; a
// record that fails to parse or verify reads as "nobody logged in" and
// is cleared, never surfaced as an error.
type Store struct {
	blobs  *blobstore.Store
	secret []byte
}

func NewStore(blobs *blobstore.Store, secret string) *Store {
	return &Store{
		blobs:  blobs,
		secret: []byte(secret),
	}
}

// Save signs user into the session record, replacing any previous one.
func (s *Store) Save(ctx context.Context, user types.AuthUser) error {
	claims := Claims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.Itoa(user.ID),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return err
	}
	return s.blobs.Set(ctx, Key, []byte(signed))
}

// Current returns the logged-in user, or nil when no valid session
// record exists.
func (s *Store) Current(ctx context.Context) (*types.AuthUser, error) {
	raw, err := s.blobs.Get(ctx, Key)
	if errors.Is(err, blobstore.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user, err := s.parse(string(raw))
	if err != nil {
		// Tampered or unreadable record: drop it and report logged-out.
		if clearErr := s.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}
	return user, nil
}

// Clear removes the session record.
func (s *Store) Clear(ctx context.Context) error {
	return s.blobs.Delete(ctx, Key)
}

func (s *Store) parse(raw string) (*types.AuthUser, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	id, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || id < 1 {
		return nil, errors.New("invalid subject")
	}
	return &types.AuthUser{
		ID:    id,
		Name:  claims.Name,
		Email: claims.Email,
	}, nil
}
