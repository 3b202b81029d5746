package users

import (
	"context"
	"errors"
)

var (
	NotFoundErr             = errors.New("user not found")
	DuplicateUserErr        = errors.New("username or email already exists")
	RefreshTokenMismatchErr = errors.New("refresh token does not match the value on file")
)

// UserRepo is the persistence contract for account records. The refresh
// token column is the single source of truth for "is this refresh token
// still live": UpdateRefreshToken must be atomic with respect to
// concurrent writers on the same user (compare old value, then set).
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByUsernameOrEmail matches the identifier against either the
	// username (case-insensitive) or the email column.
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*User, error)

	// UpdateRefreshToken overwrites the stored refresh token only when the
	// value on file equals expectedOldValue. Returns
	// RefreshTokenMismatchErr when it does not.
	UpdateRefreshToken(ctx context.Context, id, newValue, expectedOldValue string) error

	// SetRefreshToken overwrites the stored refresh token unconditionally.
	SetRefreshToken(ctx context.Context, id, value string) error

	// ClearRefreshToken empties the stored refresh token. Clearing an
	// already-empty token is a no-op success.
	ClearRefreshToken(ctx context.Context, id string) error
}
