package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"trivia-room-service/internal/domain"
)

type gameHistoryRow struct {
	bun.BaseModel `bun:"table:game_histories,alias:gh"`

	ID             int64                 `bun:"id,pk,autoincrement"`
	RoomName       string                `bun:"room_name,notnull"`
	Category       int                   `bun:"category,notnull"`
	PlayedAt       time.Time             `bun:"played_at,notnull"`
	TotalQuestions int                   `bun:"total_questions,notnull"`
	PlayerResults  []domain.PlayerResult `bun:"player_results,type:jsonb"`
}

// HistoryStore persists finished games in the game_histories table.
type HistoryStore struct {
	db *bun.DB
}

func NewHistoryStore(db *bun.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

func (s *HistoryStore) Append(ctx context.Context, history domain.GameHistory) error {
	row := gameHistoryRow{
		RoomName:       history.RoomName,
		Category:       int(history.Category),
		PlayedAt:       history.PlayedAt,
		TotalQuestions: history.TotalQuestions,
		PlayerResults:  history.PlayerResults,
	}
	if row.PlayerResults == nil {
		row.PlayerResults = []domain.PlayerResult{}
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert game history: %w", err)
	}
	return nil
}

func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]domain.GameHistory, error) {
	var rows []gameHistoryRow
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("played_at DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select game history: %w", err)
	}
	out := make([]domain.GameHistory, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.GameHistory{
			ID:             row.ID,
			RoomName:       row.RoomName,
			Category:       domain.Category(row.Category),
			PlayedAt:       row.PlayedAt.UTC(),
			TotalQuestions: row.TotalQuestions,
			PlayerResults:  row.PlayerResults,
		})
	}
	return out, nil
}
