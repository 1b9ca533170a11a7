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

var _ repository.SolutionRepository = (*DB)(nil)

// selectSolutions joins every solution with its contributor so callers always
// get the expanded contributor without a second round trip.
const selectSolutions = `
	SELECT s.id, s.contributor_id, s.email, s.title, s.platform, s.language,
	       s.code_snippet, s.description, s.created_at, s.updated_at,
	       u.id, u.name, u.email, u.avatar_url
	FROM solutions s
	JOIN users u ON u.id = s.contributor_id`

const newestFirst = ` ORDER BY s.created_at DESC, s.id DESC`

func scanSolution(row rowScanner) (*model.Solution, error) {
	var (
		s model.Solution
		c model.Contributor
	)
	err := row.Scan(
		&s.ID,
		&s.ContributorID,
		&s.Email,
		&s.Title,
		&s.Platform,
		&s.Language,
		&s.CodeSnippet,
		&s.Description,
		&s.CreatedAt,
		&s.UpdatedAt,
		&c.ID,
		&c.Name,
		&c.Email,
		&c.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	s.Contributor = &c
	return &s, nil
}

// CreateSolution inserts a solution. ContributorID must reference an existing
// user; the foreign key rejects anything else as apperror.ErrNotFound.
func (db *DB) CreateSolution(ctx context.Context, solution *model.Solution) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	solution.ID = xid.New().String()
	solution.CreatedAt = now
	solution.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO solutions (id, contributor_id, email, title, platform, language,
		                        code_snippet, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		solution.ID,
		solution.ContributorID,
		solution.Email,
		solution.Title,
		string(solution.Platform),
		solution.Language,
		solution.CodeSnippet,
		solution.Description,
		solution.CreatedAt,
		solution.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", solution.ContributorID)
		}
		return storeErr(ctx, "create solution", err)
	}

	return nil
}

func (db *DB) GetSolution(ctx context.Context, id string) (*model.Solution, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	return db.getSolution(ctx, id)
}

func (db *DB) getSolution(ctx context.Context, id string) (*model.Solution, error) {
	s, err := scanSolution(db.conn.QueryRowContext(ctx, selectSolutions+` WHERE s.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("solution", id)
		}
		return nil, storeErr(ctx, "get solution", err)
	}
	return s, nil
}

// UpdateSolution replaces the supplied fields and returns the stored result.
func (db *DB) UpdateSolution(ctx context.Context, id string, patch model.SolutionPatch) (*model.Solution, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE solutions SET
		    title        = COALESCE(?, title),
		    platform     = COALESCE(?, platform),
		    language     = COALESCE(?, language),
		    code_snippet = COALESCE(?, code_snippet),
		    description  = COALESCE(?, description),
		    updated_at   = ?
		 WHERE id = ?`,
		nullable(patch.Title),
		nullable(patch.Platform),
		nullable(patch.Language),
		nullable(patch.CodeSnippet),
		nullable(patch.Description),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return nil, storeErr(ctx, "update solution", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, storeErr(ctx, "update solution", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("solution", id)
	}

	return db.getSolution(ctx, id)
}

// DeleteSolution removes the solution permanently.
func (db *DB) DeleteSolution(ctx context.Context, id string) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `DELETE FROM solutions WHERE id = ?`, id)
	if err != nil {
		return storeErr(ctx, "delete solution", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr(ctx, "delete solution", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("solution", id)
	}

	return nil
}

func (db *DB) ListSolutions(ctx context.Context) ([]model.Solution, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	return db.listSolutions(ctx, "list solutions", selectSolutions+newestFirst)
}

func (db *DB) ListSolutionsByContributor(ctx context.Context, userID string) ([]model.Solution, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	return db.listSolutions(ctx, "list contributor solutions",
		selectSolutions+` WHERE s.contributor_id = ?`+newestFirst, userID)
}

func (db *DB) listSolutions(ctx context.Context, op, query string, args ...any) ([]model.Solution, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(ctx, op, err)
	}
	defer rows.Close()

	solutions := make([]model.Solution, 0)
	for rows.Next() {
		s, err := scanSolution(rows)
		if err != nil {
			return nil, storeErr(ctx, op, err)
		}
		solutions = append(solutions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(ctx, op, err)
	}

	return solutions, nil
}
