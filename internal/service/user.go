package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/codinggeeks/api/internal/apperror"
	"github.com/codinggeeks/api/internal/cache"
	"github.com/codinggeeks/api/internal/model"
	"github.com/codinggeeks/api/internal/repository"
	"github.com/codinggeeks/api/internal/validation"
)

// UserService is the user directory: find-or-create on sign-in, lookup by
// email, and partial profile edits. Emails are normalized before they reach
// the store.
type UserService struct {
	users    repository.UserRepository
	cache    *cache.Cache
	validate *validator.Validate
	logger   *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	c *cache.Cache,
	validate *validator.Validate,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		cache:    c,
		validate: validate,
		logger:   logger,
	}
}

// EnsureUser returns the user for in.Email, creating it if it does not exist.
// An existing record is returned unchanged; this path never overwrites a
// profile.
//
// Two first sign-ins racing for the same email both see "not found"; the
// store's unique constraint lets one insert win and the other gets
// ErrConflict, which is resolved by reading the winner's record.
func (s *UserService) EnsureUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	in = trimNewUser(in)

	if in.Email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if err := s.validate.Var(in.Email, "email,max=320"); err != nil {
		return nil, apperror.ValidationFailed("email", "email must be a valid email address")
	}

	existing, err := s.users.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/user: looking up %s: %w", in.Email, err)
	}

	// Only a brand-new user has to carry a complete profile.
	if in.Name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, validation.Error(err)
	}

	user := &model.User{
		Email:       in.Email,
		Name:        in.Name,
		AvatarURL:   in.AvatarURL,
		Description: in.Description,
		LeetCode:    in.LeetCode,
		GFG:         in.GFG,
		GitHub:      in.GitHub,
		LinkedIn:    in.LinkedIn,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/user: creating %s: %w", in.Email, err)
		}

		s.logger.Warn("user created concurrently, re-reading",
			slog.String("email", in.Email),
		)
		winner, err := s.users.GetUserByEmail(ctx, in.Email)
		if err != nil {
			return nil, fmt.Errorf("service/user: re-reading %s after conflict: %w", in.Email, err)
		}
		return winner, nil
	}

	s.logger.Info("user created",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, apperror.MissingParameter("email")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching %s: %w", email, err)
	}
	return user, nil
}

// UpdateUserProfile writes only the fields present in patch. It is not an
// upsert: an unknown email is ErrNotFound and nothing is created.
func (s *UserService) UpdateUserProfile(ctx context.Context, email string, patch model.UserPatch) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, apperror.MissingParameter("email")
	}

	patch = trimUserPatch(patch)
	if err := s.validate.Struct(patch); err != nil {
		return nil, validation.Error(err)
	}
	if patch.AvatarURL != nil && *patch.AvatarURL != "" {
		if err := s.validate.Var(*patch.AvatarURL, "url"); err != nil {
			return nil, apperror.ValidationFailed("avatarUrl", "avatarUrl must be a valid URL")
		}
	}

	if patch.Empty() {
		return s.GetUserByEmail(ctx, email)
	}

	user, err := s.users.UpdateUser(ctx, email, patch)
	if err != nil {
		return nil, fmt.Errorf("service/user: updating %s: %w", email, err)
	}

	// Solution lists embed the contributor's name and avatar.
	invalidate(ctx, s.cache, s.logger, cache.ProfileKey(email), cache.KeyAllSolutions)

	s.logger.Info("user profile updated",
		slog.String("userID", user.ID),
		slog.String("email", email),
	)

	return user, nil
}

func trimNewUser(in model.NewUser) model.NewUser {
	in.Email = model.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)
	in.Description = strings.TrimSpace(in.Description)
	in.LeetCode = strings.TrimSpace(in.LeetCode)
	in.GFG = strings.TrimSpace(in.GFG)
	in.GitHub = strings.TrimSpace(in.GitHub)
	in.LinkedIn = strings.TrimSpace(in.LinkedIn)
	return in
}

func trimUserPatch(p model.UserPatch) model.UserPatch {
	return model.UserPatch{
		Name:        trimPtr(p.Name),
		AvatarURL:   trimPtr(p.AvatarURL),
		Description: trimPtr(p.Description),
		LeetCode:    trimPtr(p.LeetCode),
		GFG:         trimPtr(p.GFG),
		GitHub:      trimPtr(p.GitHub),
		LinkedIn:    trimPtr(p.LinkedIn),
	}
}
