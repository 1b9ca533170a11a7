package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/codinggeeks/api/internal/apperror"
	"github.com/codinggeeks/api/internal/cache"
	"github.com/codinggeeks/api/internal/model"
	"github.com/codinggeeks/api/internal/validation"
)

type solutionFixture struct {
	users     *fakeUserRepo
	solutions *fakeSolutionRepo
	userSvc   *UserService
	svc       *SolutionService
}

func newSolutionFixture(t *testing.T, c *cache.Cache) *solutionFixture {
	t.Helper()
	users := newFakeUserRepo()
	solutions := newFakeSolutionRepo()
	v := validation.New()
	userSvc := NewUserService(users, c, v, testLogger())
	return &solutionFixture{
		users:     users,
		solutions: solutions,
		userSvc:   userSvc,
		svc:       NewSolutionService(solutions, userSvc, c, v, testLogger()),
	}
}

func (f *solutionFixture) user(t *testing.T, email, name string) *model.User {
	t.Helper()
	u, err := f.userSvc.EnsureUser(context.Background(), model.NewUser{Email: email, Name: name})
	if err != nil {
		t.Fatalf("EnsureUser(%s) error = %v", email, err)
	}
	return u
}

func (f *solutionFixture) solution(t *testing.T, email, title string) *model.Solution {
	t.Helper()
	s, err := f.svc.CreateSolution(context.Background(), model.NewSolution{
		Email:       email,
		Title:       title,
		Platform:    model.PlatformLeetCode,
		Language:    "Go",
		CodeSnippet: "func main() {}",
	})
	if err != nil {
		t.Fatalf("CreateSolution(%s) error = %v", title, err)
	}
	return s
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreateSolution_ResolvesContributorByEmail(t *testing.T) {
	f := newSolutionFixture(t, nil)
	owner := f.user(t, "a@x.com", "A")

	s, err := f.svc.CreateSolution(context.Background(), model.NewSolution{
		Email:       "A@X.COM",
		Title:       "Two Sum",
		Platform:    model.PlatformGFG,
		Language:    "Python",
		CodeSnippet: "pass",
	})
	if err != nil {
		t.Fatalf("CreateSolution() error = %v", err)
	}

	if s.ContributorID != owner.ID {
		t.Errorf("ContributorID = %q, want %q", s.ContributorID, owner.ID)
	}
	if s.Email != "a@x.com" {
		t.Errorf("Email = %q, want %q", s.Email, "a@x.com")
	}
	if s.Contributor == nil || s.Contributor.Name != "A" {
		t.Errorf("Contributor = %+v, want expanded owner", s.Contributor)
	}
}

func TestCreateSolution_UnknownEmailWritesNothing(t *testing.T) {
	f := newSolutionFixture(t, nil)

	_, err := f.svc.CreateSolution(context.Background(), model.NewSolution{
		Email:       "ghost@x.com",
		Title:       "t",
		Platform:    model.PlatformCodeforces,
		Language:    "C++",
		CodeSnippet: "int main(){}",
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("CreateSolution() error = %v, want ErrNotFound", err)
	}
	if len(f.solutions.byID) != 0 {
		t.Errorf("solutions stored = %d, want 0", len(f.solutions.byID))
	}
}

func TestCreateSolution_Validation(t *testing.T) {
	f := newSolutionFixture(t, nil)
	f.user(t, "a@x.com", "A")

	valid := model.NewSolution{
		Email:       "a@x.com",
		Title:       "t",
		Platform:    model.PlatformLeetCode,
		Language:    "Go",
		CodeSnippet: "x",
	}

	tests := []struct {
		name    string
		mutate  func(*model.NewSolution)
		wantErr error
	}{
		{"missing email", func(s *model.NewSolution) { s.Email = "" }, apperror.ErrMissingParameter},
		{"missing title", func(s *model.NewSolution) { s.Title = "  " }, apperror.ErrValidation},
		{"unknown platform", func(s *model.NewSolution) { s.Platform = "HackerRank" }, apperror.ErrValidation},
		{"missing code", func(s *model.NewSolution) { s.CodeSnippet = "" }, apperror.ErrValidation},
		{"missing language", func(s *model.NewSolution) { s.Language = "" }, apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := f.svc.CreateSolution(context.Background(), in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateSolution() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if len(f.solutions.byID) != 0 {
		t.Errorf("solutions stored = %d, want 0", len(f.solutions.byID))
	}
}

// =========================================================================
// GET / UPDATE / DELETE
// =========================================================================

func TestGetSolution(t *testing.T) {
	f := newSolutionFixture(t, nil)
	f.user(t, "a@x.com", "A")
	s := f.solution(t, "a@x.com", "Two Sum")
	ctx := context.Background()

	if _, err := f.svc.GetSolution(ctx, ""); !errors.Is(err, apperror.ErrMissingParameter) {
		t.Errorf("GetSolution(\"\") error = %v, want ErrMissingParameter", err)
	}
	if _, err := f.svc.GetSolution(ctx, "nope"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSolution(nope) error = %v, want ErrNotFound", err)
	}
	got, err := f.svc.GetSolution(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSolution() error = %v", err)
	}
	if got.Title != "Two Sum" {
		t.Errorf("Title = %q, want %q", got.Title, "Two Sum")
	}
}

func TestUpdateSolution_Ownership(t *testing.T) {
	f := newSolutionFixture(t, nil)
	owner := f.user(t, "a@x.com", "A")
	other := f.user(t, "b@x.com", "B")
	s := f.solution(t, "a@x.com", "Two Sum")
	ctx := context.Background()
	patch := model.SolutionPatch{Title: strPtr("Three Sum")}

	tests := []struct {
		name    string
		actor   string
		id      string
		wantErr error
	}{
		{"missing solution wins over missing actor", "", "nope", apperror.ErrNotFound},
		{"anonymous", "", s.ID, apperror.ErrUnauthorized},
		{"not the contributor", other.ID, s.ID, apperror.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.UpdateSolution(ctx, tt.actor, tt.id, patch); !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateSolution() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if f.solutions.byID[s.ID].Title != "Two Sum" {
		t.Fatal("rejected update modified the solution")
	}

	updated, err := f.svc.UpdateSolution(ctx, owner.ID, s.ID, patch)
	if err != nil {
		t.Fatalf("UpdateSolution(owner) error = %v", err)
	}
	if updated.Title != "Three Sum" || updated.Language != "Go" {
		t.Errorf("UpdateSolution() = %+v", updated)
	}
}

func TestUpdateSolution_InvalidPlatform(t *testing.T) {
	f := newSolutionFixture(t, nil)
	owner := f.user(t, "a@x.com", "A")
	s := f.solution(t, "a@x.com", "Two Sum")

	bad := model.Platform("TopCoder")
	_, err := f.svc.UpdateSolution(context.Background(), owner.ID, s.ID, model.SolutionPatch{Platform: &bad})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("UpdateSolution() error = %v, want ErrValidation", err)
	}
}

func TestUpdateSolution_LookupBeforeValidation(t *testing.T) {
	f := newSolutionFixture(t, nil)
	owner := f.user(t, "a@x.com", "A")
	other := f.user(t, "b@x.com", "B")
	s := f.solution(t, "a@x.com", "Two Sum")
	ctx := context.Background()

	bad := model.Platform("TopCoder")
	patch := model.SolutionPatch{Platform: &bad}

	tests := []struct {
		name    string
		actor   string
		id      string
		wantErr error
	}{
		{"missing solution", owner.ID, "nope", apperror.ErrNotFound},
		{"anonymous", "", s.ID, apperror.ErrUnauthorized},
		{"not the contributor", other.ID, s.ID, apperror.ErrForbidden},
		{"owner", owner.ID, s.ID, apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.UpdateSolution(ctx, tt.actor, tt.id, patch); !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateSolution() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeleteSolution(t *testing.T) {
	f := newSolutionFixture(t, nil)
	owner := f.user(t, "a@x.com", "A")
	other := f.user(t, "b@x.com", "B")
	s := f.solution(t, "a@x.com", "Two Sum")
	ctx := context.Background()

	if err := f.svc.DeleteSolution(ctx, other.ID, s.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("DeleteSolution(other) error = %v, want ErrForbidden", err)
	}
	if err := f.svc.DeleteSolution(ctx, owner.ID, s.ID); err != nil {
		t.Fatalf("DeleteSolution(owner) error = %v", err)
	}
	if _, err := f.svc.GetSolution(ctx, s.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSolution() after delete error = %v, want ErrNotFound", err)
	}
	if err := f.svc.DeleteSolution(ctx, owner.ID, s.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteSolution() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LISTING AND CACHE
// =========================================================================

func TestListAllSolutions_NewestFirst(t *testing.T) {
	f := newSolutionFixture(t, nil)
	f.user(t, "a@x.com", "A")
	s1 := f.solution(t, "a@x.com", "first")
	s2 := f.solution(t, "a@x.com", "second")

	all, err := f.svc.ListAllSolutions(context.Background())
	if err != nil {
		t.Fatalf("ListAllSolutions() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != s2.ID || all[1].ID != s1.ID {
		t.Errorf("ListAllSolutions() order = %v", solutionIDs(all))
	}
}

func TestListAllSolutions_CachedUntilWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newSolutionFixture(t, cache.New(client, "test:", time.Minute))
	owner := f.user(t, "a@x.com", "A")
	s := f.solution(t, "a@x.com", "first")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.ListAllSolutions(ctx); err != nil {
			t.Fatalf("ListAllSolutions() error = %v", err)
		}
	}
	if f.solutions.listCalls != 1 {
		t.Errorf("store list calls = %d, want 1", f.solutions.listCalls)
	}

	if err := f.svc.DeleteSolution(ctx, owner.ID, s.ID); err != nil {
		t.Fatalf("DeleteSolution() error = %v", err)
	}
	all, err := f.svc.ListAllSolutions(ctx)
	if err != nil {
		t.Fatalf("ListAllSolutions() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ListAllSolutions() after delete returned %d stale solutions", len(all))
	}
	if f.solutions.listCalls != 2 {
		t.Errorf("store list calls = %d, want 2", f.solutions.listCalls)
	}
}

func TestListAllSolutions_CacheDownFallsBackToStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	f := newSolutionFixture(t, cache.New(client, "test:", time.Minute))
	f.user(t, "a@x.com", "A")
	f.solution(t, "a@x.com", "first")
	mr.Close()

	all, err := f.svc.ListAllSolutions(context.Background())
	if err != nil {
		t.Fatalf("ListAllSolutions() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("len(ListAllSolutions()) = %d, want 1", len(all))
	}
}

func solutionIDs(solutions []model.Solution) []string {
	ids := make([]string, len(solutions))
	for i, s := range solutions {
		ids[i] = s.ID
	}
	return ids
}
