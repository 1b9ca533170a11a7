package postgres

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

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, name, avatar_url, description, leetcode, gfg, github, linkedin, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (:id, :email, :name, :avatar_url, :description, :leetcode, :gfg, :github, :linkedin, :created_at, :updated_at)`,
		user,
	)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return apperror.Conflict("user", user.Email)
		}
		return storeErr(ctx, "create user", err)
	}
	return nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	return db.getUser(ctx, "email", email)
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	return db.getUser(ctx, "id", id)
}

// getUser looks a user up by one of the two unique keys; column is never user input.
func (db *DB) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User
	err := db.conn.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", value)
		}
		return nil, storeErr(ctx, "get user", err)
	}
	return &u, nil
}

func (db *DB) UpdateUser(ctx context.Context, email string, patch model.UserPatch) (*model.User, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	var u model.User
	err := db.conn.GetContext(ctx, &u,
		`UPDATE users SET
		    name        = COALESCE($1, name),
		    avatar_url  = COALESCE($2, avatar_url),
		    description = COALESCE($3, description),
		    leetcode    = COALESCE($4, leetcode),
		    gfg         = COALESCE($5, gfg),
		    github      = COALESCE($6, github),
		    linkedin    = COALESCE($7, linkedin),
		    updated_at  = $8
		 WHERE email = $9
		 RETURNING `+userColumns,
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, storeErr(ctx, "update user", err)
	}
	return &u, nil
}
