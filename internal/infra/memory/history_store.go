package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-room-service/internal/domain"
)

// HistoryStore keeps finished games in memory; used when no database is configured.
type HistoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []domain.GameHistory
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Append(_ context.Context, history domain.GameHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	history.ID = s.nextID
	history.PlayerResults = append([]domain.PlayerResult(nil), history.PlayerResults...)
	s.records = append(s.records, history)
	return nil
}

func (s *HistoryStore) Recent(_ context.Context, limit int) ([]domain.GameHistory, error) {
	s.mu.RLock()
	out := append([]domain.GameHistory(nil), s.records...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PlayedAt.Equal(out[j].PlayedAt) {
			return out[i].PlayedAt.After(out[j].PlayedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
