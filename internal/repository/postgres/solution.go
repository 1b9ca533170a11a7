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

var _ repository.SolutionRepository = (*DB)(nil)

// solutionRow is one solution joined with its contributor.
type solutionRow struct {
	ID                   string    `db:"id"`
	ContributorID        string    `db:"contributor_id"`
	Email                string    `db:"email"`
	Title                string    `db:"title"`
	Platform             string    `db:"platform"`
	Language             string    `db:"language"`
	CodeSnippet          string    `db:"code_snippet"`
	Description          string    `db:"description"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
	ContributorName      string    `db:"contributor_name"`
	ContributorEmail     string    `db:"contributor_email"`
	ContributorAvatarURL string    `db:"contributor_avatar_url"`
}

func (r solutionRow) toModel() model.Solution {
	return model.Solution{
		ID:            r.ID,
		ContributorID: r.ContributorID,
		Contributor: &model.Contributor{
			ID:        r.ContributorID,
			Name:      r.ContributorName,
			Email:     r.ContributorEmail,
			AvatarURL: r.ContributorAvatarURL,
		},
		Email:       r.Email,
		Title:       r.Title,
		Platform:    model.Platform(r.Platform),
		Language:    r.Language,
		CodeSnippet: r.CodeSnippet,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const selectSolutions = `
	SELECT s.id, s.contributor_id, s.email, s.title, s.platform, s.language,
	       s.code_snippet, s.description, s.created_at, s.updated_at,
	       u.name AS contributor_name, u.email AS contributor_email, u.avatar_url AS contributor_avatar_url
	FROM solutions s
	JOIN users u ON u.id = s.contributor_id`

const newestFirst = ` ORDER BY s.created_at DESC, s.id DESC`

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
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
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
		if pgCode(err) == codeForeignKeyViolation {
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
	var row solutionRow
	if err := db.conn.GetContext(ctx, &row, selectSolutions+` WHERE s.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("solution", id)
		}
		return nil, storeErr(ctx, "get solution", err)
	}
	s := row.toModel()
	return &s, nil
}

func (db *DB) UpdateSolution(ctx context.Context, id string, patch model.SolutionPatch) (*model.Solution, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE solutions SET
		    title        = COALESCE($1, title),
		    platform     = COALESCE($2, platform),
		    language     = COALESCE($3, language),
		    code_snippet = COALESCE($4, code_snippet),
		    description  = COALESCE($5, description),
		    updated_at   = $6
		 WHERE id = $7`,
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
	if n, err := result.RowsAffected(); err != nil {
		return nil, storeErr(ctx, "update solution", err)
	} else if n == 0 {
		return nil, apperror.NotFound("solution", id)
	}

	return db.getSolution(ctx, id)
}

func (db *DB) DeleteSolution(ctx context.Context, id string) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `DELETE FROM solutions WHERE id = $1`, id)
	if err != nil {
		return storeErr(ctx, "delete solution", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return storeErr(ctx, "delete solution", err)
	} else if n == 0 {
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
		selectSolutions+` WHERE s.contributor_id = $1`+newestFirst, userID)
}

func (db *DB) listSolutions(ctx context.Context, op, query string, args ...any) ([]model.Solution, error) {
	var rows []solutionRow
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr(ctx, op, err)
	}

	solutions := make([]model.Solution, 0, len(rows))
	for _, r := range rows {
		solutions = append(solutions, r.toModel())
	}
	return solutions, nil
}
