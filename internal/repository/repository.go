// Package repository declares the persistence contracts. Implementations live
// in the sqlite and postgres subpackages and translate every driver failure
// into an apperror before returning.
package repository

import (
	"context"

	"github.com/codinggeeks/api/internal/model"
)

type UserRepository interface {
	// CreateUser inserts a new user and fills in ID and timestamps.
	// Returns apperror.ErrConflict if the email is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// UpdateUser applies a partial update. It never creates a user.
	UpdateUser(ctx context.Context, email string, patch model.UserPatch) (*model.User, error)
}

type SolutionRepository interface {
	CreateSolution(ctx context.Context, solution *model.Solution) error
	GetSolution(ctx context.Context, id string) (*model.Solution, error)
	UpdateSolution(ctx context.Context, id string, patch model.SolutionPatch) (*model.Solution, error)
	DeleteSolution(ctx context.Context, id string) error
	// ListSolutions returns every solution, newest first, contributor expanded.
	ListSolutions(ctx context.Context) ([]model.Solution, error)
	ListSolutionsByContributor(ctx context.Context, userID string) ([]model.Solution, error)
}

// Store is a complete backend: both repositories plus connection lifecycle.
type Store interface {
	UserRepository
	SolutionRepository
	Ping(ctx context.Context) error
	Close() error
}
