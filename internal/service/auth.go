package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codinggeeks/api/internal/auth"
	"github.com/codinggeeks/api/internal/model"
)

// AuthService turns a verified identity from an OAuth provider into a user
// record and a session token.
//
//	AuthHandler (HTTP) → AuthService → UserService.EnsureUser
//	                               ↘ TokenService (JWT)
type AuthService struct {
	users  *UserService
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthService(users *UserService, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignIn finds or creates the user for id and issues a session token. A
// returning user's stored profile is never overwritten by provider data.
func (s *AuthService) SignIn(ctx context.Context, id *auth.Identity) (*AuthResult, error) {
	user, err := s.users.EnsureUser(ctx, model.NewUser{
		Email:     id.Email,
		Name:      id.Name,
		AvatarURL: id.AvatarURL,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: ensuring user for %s sign-in: %w", id.Provider, err)
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token: %w", err)
	}

	s.logger.Info("user signed in",
		slog.String("userID", user.ID),
		slog.String("provider", id.Provider),
	)

	return &AuthResult{User: user, Token: token}, nil
}
