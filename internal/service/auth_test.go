package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codinggeeks/api/internal/apperror"
	"github.com/codinggeeks/api/internal/auth"
	"github.com/codinggeeks/api/internal/validation"
)

func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	users := NewUserService(repo, nil, validation.New(), testLogger())
	return NewAuthService(users, tokens, testLogger()), tokens
}

func TestSignIn_FirstLoginCreatesUserAndToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc, tokens := newTestAuthService(t, repo)

	result, err := svc.SignIn(context.Background(), &auth.Identity{
		Provider:  "google",
		Name:      "Ada",
		Email:     "Ada@X.com",
		AvatarURL: "https://lh3/ada.png",
	})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if result.User.ID == "" || result.User.Email != "ada@x.com" {
		t.Errorf("SignIn() user = %+v", result.User)
	}

	claims, err := tokens.Validate(result.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.UserID() != result.User.ID || claims.Email != "ada@x.com" {
		t.Errorf("claims = (%q, %q), want (%q, %q)", claims.UserID(), claims.Email, result.User.ID, "ada@x.com")
	}
}

func TestSignIn_ReturningUserKeepsProfile(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	first, err := svc.SignIn(ctx, &auth.Identity{Provider: "github", Name: "octo", Email: "o@x.com"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	second, err := svc.SignIn(ctx, &auth.Identity{Provider: "google", Name: "Octo Cat", Email: "o@x.com"})
	if err != nil {
		t.Fatalf("second SignIn() error = %v", err)
	}

	if second.User.ID != first.User.ID || second.User.Name != "octo" {
		t.Errorf("returning user = %+v, want unchanged %+v", second.User, first.User)
	}
}

func TestSignIn_StoreFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getErr = apperror.Timeout("get user")
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.SignIn(context.Background(), &auth.Identity{Provider: "google", Name: "A", Email: "a@x.com"})
	if !errors.Is(err, apperror.ErrTimeout) {
		t.Errorf("SignIn() error = %v, want ErrTimeout", err)
	}
}
