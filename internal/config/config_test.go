package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
postgres:
  url: postgres://file/trivia
game:
  question_timeout: 20s
  results_delay: nonsense
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DATABASE_URL", "postgres://env/trivia")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Postgres.URL != "postgres://env/trivia" {
		t.Fatalf("expected DATABASE_URL to win, got %q", cfg.Postgres.URL)
	}

	timings := cfg.Timings()
	if timings.QuestionTimeout != 20*time.Second {
		t.Fatalf("expected 20s question timeout, got %v", timings.QuestionTimeout)
	}
	if timings.ResultsDelay != 5*time.Second {
		t.Fatalf("expected default results delay, got %v", timings.ResultsDelay)
	}
	if timings.HistoryLimit != 20 {
		t.Fatalf("expected default history limit, got %d", timings.HistoryLimit)
	}

	logger := cfg.NewLogger()
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", logger.Formatter)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
	if got := TTLDuration("-5s", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for negative duration, got %v", got)
	}
}
