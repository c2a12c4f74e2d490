package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

const waitFor = 3 * time.Second

type delivery struct {
	conn  string
	event domain.Event
}

// recorder is an app.Notifier that keeps every delivery.
type recorder struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (r *recorder) Notify(connectionID string, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{conn: connectionID, event: event})
}

func (r *recorder) events(conn string, typ domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Event
	for _, d := range r.deliveries {
		if d.conn == conn && d.event.Type == typ {
			out = append(out, d.event)
		}
	}
	return out
}

func (r *recorder) total(conn string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.deliveries {
		if d.conn == conn {
			n++
		}
	}
	return n
}

// types lists the event types conn received, in order.
func (r *recorder) types(conn string) []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.EventType
	for _, d := range r.deliveries {
		if d.conn == conn {
			out = append(out, d.event.Type)
		}
	}
	return out
}

// waitNth blocks until conn has received n events of typ and returns the nth.
func (r *recorder) waitNth(t *testing.T, conn string, typ domain.EventType, n int) domain.Event {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.events(conn, typ)) >= n
	}, waitFor, 2*time.Millisecond, "%s never received %d %s events", conn, n, typ)
	return r.events(conn, typ)[n-1]
}

type harness struct {
	controller *app.GameController
	rooms      *memory.RoomStore
	history    app.HistoryStore
	notifier   *recorder
	hook       *logtest.Hook
}

func newHarness(t *testing.T, timings app.Timings, history app.HistoryStore) *harness {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	if history == nil {
		history = memory.NewHistoryStore()
	}
	h := &harness{
		rooms:    memory.NewRoomStore(),
		history:  history,
		notifier: &recorder{},
		hook:     hook,
	}
	h.controller = app.NewGameController(h.rooms, memory.NewStaticQuestionBank(triviaQuestions()), history, h.notifier, logger, timings)
	t.Cleanup(h.controller.Close)
	return h
}

func fastTimings(questionTimeout time.Duration) app.Timings {
	return app.Timings{
		QuestionTimeout: questionTimeout,
		ResultsDelay:    5 * time.Millisecond,
		PersistTimeout:  time.Second,
		HistoryLimit:    20,
	}
}

// triviaQuestions: 3 Math, 2 English, 1 GeneralKnowledge, no DotNetDevelopment.
// The correct option is always index 1.
func triviaQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOptionIndex: 1, Category: domain.CategoryMath},
		{ID: 2, Text: "What is 7 * 6?", Options: []string{"36", "42", "48"}, CorrectOptionIndex: 1, Category: domain.CategoryMath},
		{ID: 3, Text: "What is 9 - 3?", Options: []string{"5", "6", "7"}, CorrectOptionIndex: 1, Category: domain.CategoryMath},
		{ID: 4, Text: "Synonym of rapid?", Options: []string{"slow", "quick"}, CorrectOptionIndex: 1, Category: domain.CategoryEnglish},
		{ID: 5, Text: "Past tense of go?", Options: []string{"goed", "went"}, CorrectOptionIndex: 1, Category: domain.CategoryEnglish},
		{ID: 6, Text: "Capital of France?", Options: []string{"Berlin", "Paris"}, CorrectOptionIndex: 1, Category: domain.CategoryGeneralKnowledge},
	}
}

type failingHistory struct{}

func (failingHistory) Append(context.Context, domain.GameHistory) error {
	return errors.New("database unavailable")
}

func (failingHistory) Recent(context.Context, int) ([]domain.GameHistory, error) {
	return nil, errors.New("database unavailable")
}
