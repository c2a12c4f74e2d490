package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/config"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
	"trivia-room-service/internal/infra/postgres"
	redisinfra "trivia-room-service/internal/infra/redis"
	"trivia-room-service/internal/infra/sqlite"
)

// backends are the storage adapters picked from config: Postgres and Redis when
// configured, SQLite or process memory otherwise.
type backends struct {
	questions app.QuestionBank
	history   app.HistoryStore
	rooms     app.RoomRepository
	closers   []func()
}

func openBackends(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*backends, error) {
	b := &backends{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		logger.WithField("addr", cfg.Redis.Addr).Info("using redis")
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionBank(sampleQuestions())
	var history app.HistoryStore
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		db := postgres.OpenBun(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { db.Close() })

		loader = postgres.NewQuestionBank(pool)
		history = postgres.NewHistoryStore(db)
		logger.Info("using postgres question bank and history")
	} else if cfg.SQLite.Path != "" {
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { store.Close() })
		history = store
		logger.WithField("path", cfg.SQLite.Path).Info("using sqlite history")
	} else {
		history = memory.NewHistoryStore()
		logger.Warn("no database configured, game history is kept in memory")
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	roomTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)
	if redisClient != nil {
		b.questions = redisinfra.NewQuestionCache(redisClient, loader, questionTTL)
		b.history = redisinfra.NewHistoryFeed(redisClient, history, cfg.Timings().HistoryLimit)
		b.rooms = redisinfra.NewRoomStore(redisClient, roomTTL)
	} else {
		b.questions = memory.NewQuestionCache(loader, questionTTL)
		b.history = history
		b.rooms = memory.NewRoomStore()
	}
	return b, nil
}

// Close releases connections in reverse order of opening.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// sampleQuestions backs the question bank when Postgres is not configured. It
// mirrors the seed migration.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectOptionIndex: 1, Category: domain.CategoryMath},
		{ID: 2, Text: "What is 7 * 6?", Options: []string{"36", "42", "48", "54"}, CorrectOptionIndex: 1, Category: domain.CategoryMath},
		{ID: 3, Text: "What is the square root of 81?", Options: []string{"7", "8", "9", "10"}, CorrectOptionIndex: 2, Category: domain.CategoryMath},
		{ID: 4, Text: `Which word is a synonym of "rapid"?`, Options: []string{"slow", "quick", "late", "calm"}, CorrectOptionIndex: 1, Category: domain.CategoryEnglish},
		{ID: 5, Text: `What is the past tense of "go"?`, Options: []string{"goed", "gone", "went", "going"}, CorrectOptionIndex: 2, Category: domain.CategoryEnglish},
		{ID: 6, Text: "What is the capital of France?", Options: []string{"Berlin", "Paris", "Rome", "Madrid"}, CorrectOptionIndex: 1, Category: domain.CategoryGeneralKnowledge},
		{ID: 7, Text: "Which planet is known as the Red Planet?", Options: []string{"Earth", "Venus", "Mars", "Jupiter"}, CorrectOptionIndex: 2, Category: domain.CategoryGeneralKnowledge},
		{ID: 8, Text: "Who wrote Romeo and Juliet?", Options: []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"}, CorrectOptionIndex: 1, Category: domain.CategoryGeneralKnowledge},
		{ID: 9, Text: "Which keyword declares a constant in C#?", Options: []string{"static", "readonly", "const", "sealed"}, CorrectOptionIndex: 2, Category: domain.CategoryDotNetDevelopment},
		{ID: 10, Text: "What does CLR stand for?", Options: []string{"Common Language Runtime", "Compiled Library Resource", "Core Logic Runner", "Class Loader Registry"}, CorrectOptionIndex: 0, Category: domain.CategoryDotNetDevelopment},
	}
}
