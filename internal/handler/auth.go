package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/codinggeeks/api/internal/apperror"
	"github.com/codinggeeks/api/internal/auth"
)

const stateCookie = "oauth_state"

// AuthHandler runs the OAuth sign-in flow for every configured provider and
// manages the session cookie.
//
//   - HandleLogin    → redirect the browser to the provider
//   - HandleCallback → exchange the code, sign the user in, set the cookie
//   - HandleLogout   → clear the cookie
//   - HandleMe       → return the signed-in user
type AuthHandler struct {
	providers   map[string]auth.Provider
	signIn      SignInService
	tokens      *auth.TokenService
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(
	providers []auth.Provider,
	signIn SignInService,
	tokens *auth.TokenService,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	byName := make(map[string]auth.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &AuthHandler{
		providers:   byName,
		signIn:      signIn,
		tokens:      tokens,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

func (h *AuthHandler) provider(w http.ResponseWriter, r *http.Request) (auth.Provider, bool) {
	name := chi.URLParam(r, "provider")
	p, ok := h.providers[name]
	if !ok {
		writeError(w, r, apperror.NotFound("sign-in provider", name))
	}
	return p, ok
}

// secure marks cookies Secure when the frontend is served over HTTPS.
func (h *AuthHandler) secure() bool {
	return strings.HasPrefix(h.frontendURL, "https://")
}

// HandleLogin redirects the user to the provider's authorization page.
//
// HTTP: GET /auth/{provider}/login
//
// A random state is stored in a short-lived HttpOnly cookie and checked on
// callback, which proves the callback was started by this server.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure(),
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, p.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes sign-in.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
//
//  1. Check the state against the cookie (CSRF)
//  2. Exchange the code for an identity
//  3. Find or create the user and issue a session token
//  4. Set the token cookie and redirect to the frontend
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || q.Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch", slog.String("provider", p.Name()))
		writeError(w, r, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("provider", p.Name()),
			slog.String("error", errParam),
		)
		http.Redirect(w, r, h.redirectURL("denied"), http.StatusSeeOther)
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, r, apperror.MissingParameter("code"))
		return
	}

	identity, err := p.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: code exchange failed",
			slog.String("provider", p.Name()),
			slog.String("error", err.Error()),
		)
		writeError(w, r, apperror.Upstream(p.Name(), err))
		return
	}

	result, err := h.signIn.SignIn(r.Context(), identity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure(),
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.redirectURL(""), http.StatusSeeOther)
}

func (h *AuthHandler) redirectURL(authStatus string) string {
	target := h.frontendURL + "/"
	if authStatus != "" {
		target += "?" + url.Values{"auth": {authStatus}}.Encode()
	}
	return target
}

// HandleLogout clears the session cookie. Tokens are stateless, so a copied
// token stays valid until it expires.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure(),
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// HandleMe returns the signed-in user. Mounted behind auth.RequireSession.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	s, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, apperror.Unauthorized("sign in required"))
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: s.User})
}
