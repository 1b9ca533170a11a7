// Package handler turns HTTP requests into service calls and service
// results into JSON.
//
// Handlers parse input (path, query, body), call exactly one service
// operation, and write the response. Validation, ownership and lookups live
// in the service layer; mapping domain errors to status codes lives in
// response.go.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/codinggeeks/api/internal/auth"
	"github.com/codinggeeks/api/internal/model"
	"github.com/codinggeeks/api/internal/service"
)

// UserService is the user directory as the HTTP layer sees it.
type UserService interface {
	EnsureUser(ctx context.Context, in model.NewUser) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, email string, patch model.UserPatch) (*model.User, error)
}

type SolutionService interface {
	CreateSolution(ctx context.Context, in model.NewSolution) (*model.Solution, error)
	GetSolution(ctx context.Context, id string) (*model.Solution, error)
	UpdateSolution(ctx context.Context, actorID, id string, patch model.SolutionPatch) (*model.Solution, error)
	DeleteSolution(ctx context.Context, actorID, id string) error
	ListAllSolutions(ctx context.Context) ([]model.Solution, error)
}

type ProfileService interface {
	GetProfileBundle(ctx context.Context, email string) (*model.ProfileBundle, error)
}

type SignInService interface {
	SignIn(ctx context.Context, id *auth.Identity) (*service.AuthResult, error)
}

var (
	_ UserService     = (*service.UserService)(nil)
	_ SolutionService = (*service.SolutionService)(nil)
	_ ProfileService  = (*service.ProfileService)(nil)
	_ SignInService   = (*service.AuthService)(nil)
)

// UserResponse wraps a single user the way the client expects it.
type UserResponse struct {
	User *model.User `json:"user"`
}

// pathOrQuery returns the named chi URL parameter, falling back to the query
// string so both /api/solution/{id} and /api/solution?id= work.
func pathOrQuery(r *http.Request, name string) string {
	if v := chi.URLParam(r, name); v != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// actorID is the signed-in user's id, or "" for anonymous requests.
func actorID(r *http.Request) string {
	if s, ok := auth.SessionFromContext(r.Context()); ok {
		return s.User.ID
	}
	return ""
}
