package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trivia-room-service/internal/domain"
)

const createGameHistories = `
CREATE TABLE IF NOT EXISTS game_histories (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	room_name       TEXT     NOT NULL,
	category        INTEGER  NOT NULL,
	played_at       DATETIME NOT NULL,
	total_questions INTEGER  NOT NULL,
	player_results  TEXT     NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS game_histories_played_at_idx ON game_histories (played_at DESC);`

// HistoryStore keeps finished games in a local SQLite file, for single-node
// deployments without Postgres.
type HistoryStore struct {
	db *sql.DB
}

// Open creates the database file if needed and ensures the schema exists.
func Open(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time keeps sqlite out of SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(createGameHistories); err != nil {
		db.Close()
		return nil, fmt.Errorf("create game_histories: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func (s *HistoryStore) Append(ctx context.Context, history domain.GameHistory) error {
	results := history.PlayerResults
	if results == nil {
		results = []domain.PlayerResult{}
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal player results: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_histories (room_name, category, played_at, total_questions, player_results) VALUES (?, ?, ?, ?, ?)`,
		history.RoomName, int(history.Category), history.PlayedAt.UTC(), history.TotalQuestions, string(raw))
	if err != nil {
		return fmt.Errorf("insert game history: %w", err)
	}
	return nil
}

func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]domain.GameHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_name, category, played_at, total_questions, player_results
		 FROM game_histories ORDER BY played_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select game history: %w", err)
	}
	defer rows.Close()

	var out []domain.GameHistory
	for rows.Next() {
		var (
			h        domain.GameHistory
			category int
			playedAt time.Time
			raw      string
		)
		if err := rows.Scan(&h.ID, &h.RoomName, &category, &playedAt, &h.TotalQuestions, &raw); err != nil {
			return nil, fmt.Errorf("scan game history: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &h.PlayerResults); err != nil {
			return nil, fmt.Errorf("unmarshal player results: %w", err)
		}
		h.Category = domain.Category(category)
		h.PlayedAt = playedAt.UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}
