package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/codinggeeks/api/internal/apperror"
	"github.com/codinggeeks/api/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository keyed by email.
type fakeUserRepo struct {
	byEmail map[string]*model.User
	nextID  int

	// lostRace, when set, is inserted by "another request" right before
	// CreateUser so the call fails with ErrConflict.
	lostRace *model.User
	getErr   error
	creates  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	f.creates++
	if f.lostRace != nil {
		f.byEmail[f.lostRace.Email] = f.lostRace
		f.lostRace = nil
	}
	if _, ok := f.byEmail[user.Email]; ok {
		return apperror.Conflict("user", user.Email)
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.byEmail[user.Email] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, email string, patch model.UserPatch) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Name, patch.Name)
	set(&u.AvatarURL, patch.AvatarURL)
	set(&u.Description, patch.Description)
	set(&u.LeetCode, patch.LeetCode)
	set(&u.GFG, patch.GFG)
	set(&u.GitHub, patch.GitHub)
	set(&u.LinkedIn, patch.LinkedIn)
	u.UpdatedAt = time.Now()
	copied := *u
	return &copied, nil
}

// fakeSolutionRepo is an in-memory repository.SolutionRepository.
type fakeSolutionRepo struct {
	byID   map[string]*model.Solution
	nextID int

	listCalls            int
	listByContributorIDs []string
	listErr              error
}

func newFakeSolutionRepo() *fakeSolutionRepo {
	return &fakeSolutionRepo{byID: make(map[string]*model.Solution)}
}

func (f *fakeSolutionRepo) CreateSolution(ctx context.Context, s *model.Solution) error {
	f.nextID++
	s.ID = fmt.Sprintf("sol-%03d", f.nextID)
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	copied := *s
	f.byID[s.ID] = &copied
	return nil
}

func (f *fakeSolutionRepo) GetSolution(ctx context.Context, id string) (*model.Solution, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("solution", id)
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSolutionRepo) UpdateSolution(ctx context.Context, id string, patch model.SolutionPatch) (*model.Solution, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("solution", id)
	}
	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.Platform != nil {
		s.Platform = *patch.Platform
	}
	if patch.Language != nil {
		s.Language = *patch.Language
	}
	if patch.CodeSnippet != nil {
		s.CodeSnippet = *patch.CodeSnippet
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSolutionRepo) DeleteSolution(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return apperror.NotFound("solution", id)
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeSolutionRepo) ListSolutions(ctx context.Context) ([]model.Solution, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sorted(func(*model.Solution) bool { return true }), nil
}

func (f *fakeSolutionRepo) ListSolutionsByContributor(ctx context.Context, userID string) ([]model.Solution, error) {
	f.listByContributorIDs = append(f.listByContributorIDs, userID)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sorted(func(s *model.Solution) bool { return s.ContributorID == userID }), nil
}

// sorted returns matching solutions newest first. IDs are zero-padded and
// assigned in creation order, so descending ID is descending age.
func (f *fakeSolutionRepo) sorted(keep func(*model.Solution) bool) []model.Solution {
	out := make([]model.Solution, 0)
	for _, s := range f.byID {
		if keep(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func strPtr(s string) *string { return &s }
