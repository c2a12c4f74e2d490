package memory

import (
	"context"
	"sort"

	"trivia-room-service/internal/domain"
)

// QuestionLoader fetches questions from a backing store (e.g., Postgres).
type QuestionLoader interface {
	QuestionsByCategory(ctx context.Context, category domain.Category) ([]domain.Question, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

// StaticQuestionBank is a simple loader backed by an in-memory slice (useful for tests/demos).
type StaticQuestionBank struct {
	questions []domain.Question
}

func NewStaticQuestionBank(questions []domain.Question) *StaticQuestionBank {
	return &StaticQuestionBank{questions: questions}
}

func (b *StaticQuestionBank) QuestionsByCategory(_ context.Context, category domain.Category) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range b.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out, nil
}

func (b *StaticQuestionBank) Categories(_ context.Context) ([]domain.Category, error) {
	seen := make(map[domain.Category]struct{})
	var out []domain.Category
	for _, q := range b.questions {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
