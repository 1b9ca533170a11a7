package handler

import (
	"net/http"

	"github.com/codinggeeks/api/internal/model"
)

type SolutionHandler struct {
	solutions SolutionService
	profiles  ProfileService
}

func NewSolutionHandler(solutions SolutionService, profiles ProfileService) *SolutionHandler {
	return &SolutionHandler{solutions: solutions, profiles: profiles}
}

type SolutionsResponse struct {
	Solutions []model.Solution `json:"solutions"`
}

// HandleCreate publishes a solution for the user named by the body's email.
//
// HTTP: POST /api/solution/new → 201
func (h *SolutionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewSolution
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	solution, err := h.solutions.CreateSolution(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, solution)
}

// HandleList returns every solution, newest first.
//
// HTTP: GET /api/solution/all
func (h *SolutionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	solutions, err := h.solutions.ListAllSolutions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SolutionsResponse{Solutions: solutions})
}

// HTTP: GET /api/solution/{id} or /api/solution?id=
func (h *SolutionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	solution, err := h.solutions.GetSolution(r.Context(), pathOrQuery(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, solution)
}

// HandleUpdate applies a partial update. Only the contributor may edit.
//
// HTTP: PATCH /api/solution/{id} or /api/solution?id=
func (h *SolutionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.SolutionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	solution, err := h.solutions.UpdateSolution(r.Context(), actorID(r), pathOrQuery(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, solution)
}

// HandleDelete removes a solution permanently. Only the contributor may
// delete.
//
// HTTP: DELETE /api/solution/{id} or /api/solution?id=
func (h *SolutionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.solutions.DeleteSolution(r.Context(), actorID(r), pathOrQuery(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Solution deleted"})
}

// HandleByUser lists one user's solutions. The email is resolved to the
// user first; solutions are never queried by raw email.
//
// HTTP: GET /api/solution/usersol?email=
func (h *SolutionHandler) HandleByUser(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.profiles.GetProfileBundle(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bundle)
}
