package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/xid"

	"github.com/codinggeeks/api/internal/apperror"
	"github.com/codinggeeks/api/internal/model"
	"github.com/codinggeeks/api/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, name, avatar_url, description, leetcode, gfg, github, linkedin, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.AvatarURL,
		&u.Description,
		&u.LeetCode,
		&u.GFG,
		&u.GitHub,
		&u.LinkedIn,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user. The UNIQUE constraint on email is what
// settles concurrent first sign-ins: the loser gets apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.Description,
		user.LeetCode,
		user.GFG,
		user.GitHub,
		user.LinkedIn,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return storeErr(ctx, "create user", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by exact email match.
// Returns apperror.ErrNotFound if no user has that email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, storeErr(ctx, "get user", err)
	}
	return u, nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, storeErr(ctx, "get user", err)
	}
	return u, nil
}

// UpdateUser writes only the non-nil fields of patch. An unknown email is
// apperror.ErrNotFound; no row is ever inserted here.
func (db *DB) UpdateUser(ctx context.Context, email string, patch model.UserPatch) (*model.User, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET
		    name        = COALESCE(?, name),
		    avatar_url  = COALESCE(?, avatar_url),
		    description = COALESCE(?, description),
		    leetcode    = COALESCE(?, leetcode),
		    gfg         = COALESCE(?, gfg),
		    github      = COALESCE(?, github),
		    linkedin    = COALESCE(?, linkedin),
		    updated_at  = ?
		 WHERE email = ?`,
		nullable(patch.Name),
		nullable(patch.AvatarURL),
		nullable(patch.Description),
		nullable(patch.LeetCode),
		nullable(patch.GFG),
		nullable(patch.GitHub),
		nullable(patch.LinkedIn),
		time.Now().UTC(),
		email,
	)
	if err != nil {
		return nil, storeErr(ctx, "update user", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, storeErr(ctx, "update user", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("user", email)
	}

	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, storeErr(ctx, "update user", err)
	}
	return u, nil
}
