package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"trivia-room-service/internal/config"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
	redisinfra "trivia-room-service/internal/infra/redis"
)

func TestOpenBackendsInMemory(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	b, err := openBackends(context.Background(), config.Config{}, logger)
	if err != nil {
		t.Fatalf("open backends: %v", err)
	}
	defer b.Close()

	if _, ok := b.rooms.(*memory.RoomStore); !ok {
		t.Fatalf("expected memory room store, got %T", b.rooms)
	}
	if _, ok := b.history.(*memory.HistoryStore); !ok {
		t.Fatalf("expected memory history, got %T", b.history)
	}
	questions, err := b.questions.QuestionsByCategory(context.Background(), domain.CategoryMath)
	if err != nil || len(questions) != 3 {
		t.Fatalf("expected 3 sample math questions, got %d (%v)", len(questions), err)
	}
}

func TestOpenBackendsSQLiteAndRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	logger, _ := logtest.NewNullLogger()

	var cfg config.Config
	cfg.Redis.Addr = mr.Addr()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "history.db")

	b, err := openBackends(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("open backends: %v", err)
	}
	defer b.Close()

	if _, ok := b.rooms.(*redisinfra.RoomStore); !ok {
		t.Fatalf("expected redis room store, got %T", b.rooms)
	}
	if _, ok := b.history.(*redisinfra.HistoryFeed); !ok {
		t.Fatalf("expected redis history feed, got %T", b.history)
	}
	if _, ok := b.questions.(*redisinfra.QuestionCache); !ok {
		t.Fatalf("expected redis question cache, got %T", b.questions)
	}
	if _, err := os.Stat(cfg.SQLite.Path); err != nil {
		t.Fatalf("expected sqlite file to exist: %v", err)
	}
}

func TestHistoryCommandPrintsJSON(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := "sqlite:\n  path: " + filepath.Join(dir, "history.db") + "\nlog:\n  level: error\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"history", "--config", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var games []domain.GameHistory
	if err := json.Unmarshal(out.Bytes(), &games); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if len(games) != 0 {
		t.Fatalf("expected an empty history, got %d", len(games))
	}
}
