package handler

import "net/http"

type ProfileHandler struct {
	profiles ProfileService
}

func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// HTTP: GET /api/profile?email= → {"user": {...}, "solutions": [...]}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.profiles.GetProfileBundle(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bundle)
}
