package http

import (
	"net/http"

	"lernapp-service/internal/app"
	"lernapp-service/internal/domain"
)

type createQuestRequest struct {
	Title      string            `json:"title"`
	Subject    domain.Subject    `json:"subject"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Count      int               `json:"count"`
	// Target is "all" (default) or "selected".
	Target  string   `json:"target"`
	Members []string `json:"members"`
}

func (h *Handler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	var req createQuestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	target := app.AllMembers()
	switch req.Target {
	case "", "all":
	case "selected":
		target = app.SelectMembers(req.Members...)
	default:
		h.writeError(w, r, domain.NewError(domain.ErrValidation, "target must be all or selected"))
		return
	}
	dist, err := h.service.Quests.CreateAndDistributeQuest(r.Context(), sessionFrom(r.Context()), app.NewQuest{
		Title:      req.Title,
		Subject:    req.Subject,
		Difficulty: req.Difficulty,
		Count:      req.Count,
		Target:     target,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dist)
}

func (h *Handler) ListQuests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Quests.ListQuests(r.Context(), sessionFrom(r.Context())))
}

func (h *Handler) QuestProgress(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.Quests.AggregateQuestProgressAcrossClub(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Leaderboard.RankUsers(r.Context()))
}
