package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codinggeeks/api/internal/apperror"
	"github.com/codinggeeks/api/internal/cache"
	"github.com/codinggeeks/api/internal/model"
)

// ProfileService builds the public profile page: a user plus everything
// they contributed.
type ProfileService struct {
	users     UserDirectory
	solutions ContributionLister
	cache     *cache.Cache
	logger    *slog.Logger
}

func NewProfileService(users UserDirectory, solutions ContributionLister, c *cache.Cache, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		users:     users,
		solutions: solutions,
		cache:     c,
		logger:    logger,
	}
}

// GetProfileBundle resolves email to a user, then lists that user's
// solutions by internal id. If the user does not exist the solution store is
// never queried.
func (s *ProfileService) GetProfileBundle(ctx context.Context, email string) (*model.ProfileBundle, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, apperror.MissingParameter("email")
	}

	key := cache.ProfileKey(email)
	var cached model.ProfileBundle
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) && !errors.Is(err, cache.ErrNotAvailable) {
		s.logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/profile: fetching user %s: %w", email, err)
	}

	solutions, err := s.solutions.ListSolutionsByContributor(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: listing solutions for %s: %w", user.ID, err)
	}

	bundle := &model.ProfileBundle{User: user, Solutions: solutions}
	if err := s.cache.Set(ctx, key, bundle); err != nil {
		s.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	return bundle, nil
}

// GetUserSolutions is the solutions half of the profile bundle.
func (s *ProfileService) GetUserSolutions(ctx context.Context, email string) ([]model.Solution, error) {
	bundle, err := s.GetProfileBundle(ctx, email)
	if err != nil {
		return nil, err
	}
	return bundle.Solutions, nil
}
