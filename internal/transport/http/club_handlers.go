package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createClubRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (h *Handler) CreateClub(w http.ResponseWriter, r *http.Request) {
	var req createClubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	club, err := h.service.Clubs.CreateClub(r.Context(), sessionFrom(r.Context()), req.Name, req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, club)
}

// SearchClubs matches ?code= exactly. An empty code returns an empty list.
func (h *Handler) SearchClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := h.service.Clubs.SearchClubs(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if clubs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, clubs)
}

func (h *Handler) JoinClub(w http.ResponseWriter, r *http.Request) {
	club, err := h.service.Clubs.JoinClub(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "clubID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, club)
}

func (h *Handler) CurrentClub(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Clubs.CurrentClub(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) LeaveClub(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clubs.LeaveClub(r.Context(), sessionFrom(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "left club"})
}

func (h *Handler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	member := chi.URLParam(r, "member")
	admin, err := h.service.Clubs.ToggleAdmin(r.Context(), sessionFrom(r.Context()), member)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"member": member, "isAdmin": admin})
}
