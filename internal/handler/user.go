package handler

import (
	"net/http"

	"github.com/codinggeeks/api/internal/model"
)

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// HandleEnsure finds or creates the user named by the body's email.
//
// HTTP: POST /api/user
// BODY: {"email": "...", "name": "...", "avatarUrl": "...", ...}
func (h *UserHandler) HandleEnsure(w http.ResponseWriter, r *http.Request) {
	var in model.NewUser
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.users.EnsureUser(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// HandleGet looks a user up by email.
//
// HTTP: GET /api/user?email=
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// updateUserRequest is the patch plus the email that selects the user.
// Omitted fields are left untouched; "" clears a field.
type updateUserRequest struct {
	Email string `json:"email"`
	model.UserPatch
}

// HandleUpdate edits the profile fields present in the body.
//
// HTTP: PUT /api/user
// BODY: {"email": "...", "description": "...", ...}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Email == "" {
		req.Email = r.URL.Query().Get("email")
	}

	user, err := h.users.UpdateUserProfile(r.Context(), req.Email, req.UserPatch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user})
}
