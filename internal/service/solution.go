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

// SolutionService creates solutions on behalf of a user identified by email
// and manages their lifecycle. Every solution it stores references an
// existing user by internal id.
type SolutionService struct {
	solutions repository.SolutionRepository
	users     UserDirectory
	cache     *cache.Cache
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewSolutionService(
	solutions repository.SolutionRepository,
	users UserDirectory,
	c *cache.Cache,
	validate *validator.Validate,
	logger *slog.Logger,
) *SolutionService {
	return &SolutionService{
		solutions: solutions,
		users:     users,
		cache:     c,
		validate:  validate,
		logger:    logger,
	}
}

// CreateSolution resolves in.Email to a user and stores the solution with
// that user's id as contributor. An unknown email is apperror.ErrNotFound and
// nothing is written.
func (s *SolutionService) CreateSolution(ctx context.Context, in model.NewSolution) (*model.Solution, error) {
	in.Email = model.NormalizeEmail(in.Email)
	in.Title = strings.TrimSpace(in.Title)
	in.Language = strings.TrimSpace(in.Language)
	in.Description = strings.TrimSpace(in.Description)

	if in.Email == "" {
		return nil, apperror.MissingParameter("email")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, validation.Error(err)
	}

	owner, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("service/solution: resolving contributor %s: %w", in.Email, err)
	}

	solution := &model.Solution{
		ContributorID: owner.ID,
		Email:         owner.Email,
		Title:         in.Title,
		Platform:      in.Platform,
		Language:      in.Language,
		CodeSnippet:   in.CodeSnippet,
		Description:   in.Description,
	}
	if err := s.solutions.CreateSolution(ctx, solution); err != nil {
		return nil, fmt.Errorf("service/solution: creating: %w", err)
	}
	solution.Contributor = &model.Contributor{
		ID:        owner.ID,
		Name:      owner.Name,
		Email:     owner.Email,
		AvatarURL: owner.AvatarURL,
	}

	invalidate(ctx, s.cache, s.logger, cache.KeyAllSolutions, cache.ProfileKey(owner.Email))

	s.logger.Info("solution created",
		slog.String("solutionID", solution.ID),
		slog.String("contributorID", owner.ID),
		slog.String("platform", string(solution.Platform)),
	)

	return solution, nil
}

func (s *SolutionService) GetSolution(ctx context.Context, id string) (*model.Solution, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.MissingParameter("id")
	}

	solution, err := s.solutions.GetSolution(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/solution: fetching %s: %w", id, err)
	}
	return solution, nil
}

// UpdateSolution applies patch to the solution if actorID owns it.
func (s *SolutionService) UpdateSolution(ctx context.Context, actorID, id string, patch model.SolutionPatch) (*model.Solution, error) {
	patch = model.SolutionPatch{
		Title:       trimPtr(patch.Title),
		Platform:    patch.Platform,
		Language:    trimPtr(patch.Language),
		CodeSnippet: patch.CodeSnippet,
		Description: trimPtr(patch.Description),
	}

	current, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, validation.Error(err)
	}
	if patch.Empty() {
		return current, nil
	}

	updated, err := s.solutions.UpdateSolution(ctx, current.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("service/solution: updating %s: %w", id, err)
	}

	invalidate(ctx, s.cache, s.logger, cache.KeyAllSolutions, cache.ProfileKey(current.Email))

	s.logger.Info("solution updated",
		slog.String("solutionID", updated.ID),
		slog.String("actorID", actorID),
	)

	return updated, nil
}

// DeleteSolution permanently removes the solution if actorID owns it.
func (s *SolutionService) DeleteSolution(ctx context.Context, actorID, id string) error {
	current, err := s.owned(ctx, actorID, id)
	if err != nil {
		return err
	}

	if err := s.solutions.DeleteSolution(ctx, current.ID); err != nil {
		return fmt.Errorf("service/solution: deleting %s: %w", id, err)
	}

	invalidate(ctx, s.cache, s.logger, cache.KeyAllSolutions, cache.ProfileKey(current.Email))

	s.logger.Info("solution deleted",
		slog.String("solutionID", current.ID),
		slog.String("actorID", actorID),
	)

	return nil
}

// ListAllSolutions returns every solution, newest first, through the cache
// when one is configured.
func (s *SolutionService) ListAllSolutions(ctx context.Context) ([]model.Solution, error) {
	var cached []model.Solution
	if err := s.cache.Get(ctx, cache.KeyAllSolutions, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) && !errors.Is(err, cache.ErrNotAvailable) {
		s.logger.Warn("cache read failed", slog.String("key", cache.KeyAllSolutions), slog.String("error", err.Error()))
	}

	solutions, err := s.solutions.ListSolutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/solution: listing: %w", err)
	}

	if err := s.cache.Set(ctx, cache.KeyAllSolutions, solutions); err != nil {
		s.logger.Warn("cache write failed", slog.String("key", cache.KeyAllSolutions), slog.String("error", err.Error()))
	}

	return solutions, nil
}

func (s *SolutionService) ListSolutionsByContributor(ctx context.Context, userID string) ([]model.Solution, error) {
	solutions, err := s.solutions.ListSolutionsByContributor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/solution: listing for %s: %w", userID, err)
	}
	return solutions, nil
}

// owned loads solution id and checks that actorID is its contributor. A
// missing solution is reported before a missing or wrong actor.
func (s *SolutionService) owned(ctx context.Context, actorID, id string) (*model.Solution, error) {
	current, err := s.GetSolution(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID == "" {
		return nil, apperror.Unauthorized("sign in to modify solutions")
	}
	if current.ContributorID != actorID {
		return nil, apperror.Forbidden("only the contributor can modify this solution")
	}
	return current, nil
}
