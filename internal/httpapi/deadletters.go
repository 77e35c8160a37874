package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"lorasense/internal/deadletter"
	"lorasense/internal/utils"
)

const (
	defaultDeadLetterLimit = 100
	maxDeadLetterLimit     = 1000
)

type deadLettersHandler struct {
	repo deadletter.Repository
}

func (h *deadLettersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultDeadLetterLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxDeadLetterLimit {
			utils.WriteError(w, http.StatusBadRequest, "limit must be an integer in 1..1000")
			return
		}
		limit = n
	}

	items, err := h.repo.Latest(r.Context(), limit)
	if err != nil {
		slog.Error("list dead letters", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to list dead letters")
		return
	}
	utils.WriteJSON(w, http.StatusOK, items)
}

func (h *deadLettersHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.repo.CountByReason(r.Context())
	if err != nil {
		slog.Error("count dead letters", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to count dead letters")
		return
	}
	utils.WriteJSON(w, http.StatusOK, counts)
}

func registerDeadLetters(mux *http.ServeMux, repo deadletter.Repository) {
	h := &deadLettersHandler{repo: repo}
	mux.HandleFunc("GET /api/v1/deadletters", h.handleList)
	mux.HandleFunc("GET /api/v1/deadletters/stats", h.handleStats)
}
