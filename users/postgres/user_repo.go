// Package postgres implements users.UserRepo on PostgreSQL via pgx.
package postgres

import (
	"context"
	_ "embed"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrsteele09/go-session-service/users"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// poolIface is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	pool poolIface
}

func NewUserRepo(pool poolIface) *UserRepo {
	return &UserRepo{pool: pool}
}

// Migrate creates the users table if it does not exist.
func (ur *UserRepo) Migrate(ctx context.Context) error {
	if _, err := ur.pool.Exec(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "UserRepo.Migrate")
	}
	return nil
}

func (ur *UserRepo) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	_, err := ur.pool.Exec(ctx, `
		INSERT INTO users (id, full_name, username, email, avatar_url, cover_image_url, password_hash, refresh_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		user.ID,
		user.FullName,
		user.Username,
		user.Email,
		user.AvatarURL,
		user.CoverImageURL,
		user.PasswordHash,
		user.RefreshToken,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return users.DuplicateUserErr
		}
		return errors.Wrap(err, "UserRepo.Create")
	}
	return nil
}

func (ur *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := ur.pool.QueryRow(ctx, `
		SELECT id, full_name, username, email, avatar_url, cover_image_url, password_hash, refresh_token, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (ur *UserRepo) GetByUsernameOrEmail(ctx context.Context, identifier string) (*users.User, error) {
	row := ur.pool.QueryRow(ctx, `
		SELECT id, full_name, username, email, avatar_url, cover_image_url, password_hash, refresh_token, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1) OR email = $1
	`, identifier)
	return scanUser(row)
}

// UpdateRefreshToken rotates the stored refresh token in a single
// conditional UPDATE so concurrent rotations of the same token cannot
// both succeed.
func (ur *UserRepo) UpdateRefreshToken(ctx context.Context, id, newValue, expectedOldValue string) error {
	tag, err := ur.pool.Exec(ctx, `
		UPDATE users SET refresh_token = $2
		WHERE id = $1 AND refresh_token = $3
	`, id, newValue, expectedOldValue)
	if err != nil {
		return errors.Wrap(err, "UserRepo.UpdateRefreshToken")
	}
	if tag.RowsAffected() == 0 {
		// Row missing or the value was rotated out underneath us.
		return users.RefreshTokenMismatchErr
	}
	return nil
}

func (ur *UserRepo) SetRefreshToken(ctx context.Context, id, value string) error {
	tag, err := ur.pool.Exec(ctx, `
		UPDATE users SET refresh_token = $2 WHERE id = $1
	`, id, value)
	if err != nil {
		return errors.Wrap(err, "UserRepo.SetRefreshToken")
	}
	if tag.RowsAffected() == 0 {
		return users.NotFoundErr
	}
	return nil
}

func (ur *UserRepo) ClearRefreshToken(ctx context.Context, id string) error {
	tag, err := ur.pool.Exec(ctx, `
		UPDATE users SET refresh_token = '' WHERE id = $1
	`, id)
	if err != nil {
		return errors.Wrap(err, "UserRepo.ClearRefreshToken")
	}
	if tag.RowsAffected() == 0 {
		return users.NotFoundErr
	}
	return nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	user := &users.User{}
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Username,
		&user.Email,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.PasswordHash,
		&user.RefreshToken,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, users.NotFoundErr
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan user row")
	}
	return user, nil
}
