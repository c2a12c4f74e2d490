package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"trivia-room-service/internal/domain"
)

// HistoryLister is satisfied by app.GameController.
type HistoryLister interface {
	RecentHistory(ctx context.Context) ([]domain.GameHistory, error)
}

// HistoryHandler serves the most recent finished games as JSON, newest first.
type HistoryHandler struct {
	history HistoryLister
	log     logrus.FieldLogger
}

func NewHistoryHandler(history HistoryLister, logger logrus.FieldLogger) *HistoryHandler {
	return &HistoryHandler{history: history, log: logger}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	games, err := h.history.RecentHistory(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list game history")
		http.Error(w, "could not load game history", http.StatusInternalServerError)
		return
	}
	if games == nil {
		games = []domain.GameHistory{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(games); err != nil {
		h.log.WithError(err).Warn("write game history")
	}
}
