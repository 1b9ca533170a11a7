package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/codinggeeks/api/internal/model"
)

// CookieName is the HttpOnly cookie the session token travels in.
const CookieName = "token"

// contextKey is package-private so nothing outside auth can read or shadow
// the session stored in a request context.
type contextKey string

const sessionKey contextKey = "session"

// Session is the signed-in user for the current request, reloaded from the
// user directory on every request so profile edits show up immediately.
type Session struct {
	User *model.User
}

// UserLookup is the slice of the user directory the middleware needs.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Authenticate attaches a Session to requests that carry a valid token. It
// never rejects: a missing or invalid token, or one whose user no longer
// resolves, leaves the request anonymous. Routes that need a user add
// RequireSession.
func Authenticate(tokens *TokenService, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := TokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				logger.Debug("ignoring invalid session token", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByEmail(r.Context(), claims.Email)
			if err != nil || user.ID != claims.UserID() {
				logger.Debug("session user not resolved",
					slog.String("userID", claims.UserID()),
					slog.Any("error", err),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithSession(r.Context(), &Session{User: user})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EmailHeader carries a caller-asserted identity when sign-in is not
// configured.
const EmailHeader = "X-User-Email"

// AssertedIdentity attaches a Session for the user named by the X-User-Email
// header, or the email query parameter when the header is absent. It is the
// identity source for deployments without JWT_SECRET: the caller is trusted
// to name themselves, and ownership checks compare against that user. Like
// Authenticate it never rejects; an unknown email leaves the request
// anonymous.
func AssertedIdentity(users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			email := strings.TrimSpace(r.Header.Get(EmailHeader))
			if email == "" {
				email = strings.TrimSpace(r.URL.Query().Get("email"))
			}
			if email == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUserByEmail(r.Context(), email)
			if err != nil {
				logger.Debug("asserted user not resolved",
					slog.String("email", email),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithSession(r.Context(), &Session{User: user})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession answers 401 unless Authenticate attached a session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"sign in required","code":"unauthorized"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns (nil, false) for anonymous requests.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil && s.User != nil
}

// TokenFromRequest reads the session token from the cookie, falling back to
// an "Authorization: Bearer" header for non-browser clients.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
