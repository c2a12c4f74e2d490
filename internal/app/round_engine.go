package app

import (
	"context"
	"time"

	"trivia-room-service/internal/domain"
)

// QuestionBank loads question content (from cache/backing store).
type QuestionBank interface {
	QuestionsByCategory(ctx context.Context, category domain.Category) ([]domain.Question, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

// RoundEngine drives question progression, answer collection and scoring for rooms.
type RoundEngine struct {
	rooms     RoomRepository
	questions QuestionBank
	now       func() time.Time
}

func NewRoundEngine(rooms RoomRepository, questions QuestionBank) *RoundEngine {
	return NewRoundEngineWithClock(rooms, questions, time.Now)
}

// NewRoundEngineWithClock is test-only for deterministic timestamps.
func NewRoundEngineWithClock(rooms RoomRepository, questions QuestionBank, now func() time.Time) *RoundEngine {
	return &RoundEngine{rooms: rooms, questions: questions, now: now}
}

// StartGame loads the category's questions and moves a waiting room to playing.
// It returns false without error when the room is unknown or not waiting.
func (e *RoundEngine) StartGame(ctx context.Context, roomID string, category domain.Category) (bool, error) {
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return false, nil
	}
	if !category.Valid() {
		return false, domain.ErrUnknownCategory
	}
	if room.stateNow() != domain.StateWaiting {
		return false, nil
	}
	questions, err := e.questions.QuestionsByCategory(ctx, category)
	if err != nil {
		return false, err
	}
	if len(questions) == 0 {
		return false, domain.ErrNoQuestions
	}
	return room.startGame(category, questions), nil
}

// CurrentQuestion returns the in-flight question while the room is playing.
func (e *RoundEngine) CurrentQuestion(roomID string) (domain.Question, bool) {
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return domain.Question{}, false
	}
	return room.currentQuestion()
}

// Advance moves the cursor forward; false means the questions are exhausted.
func (e *RoundEngine) Advance(roomID string) (domain.Question, bool) {
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return domain.Question{}, false
	}
	return room.advance()
}

// RecordAnswer stores the player's latest answer for the current round and reports
// whether every seated player has answered. The round number is what the caller
// must present to the round guard. Answers for any question other than the current
// one are refused with ErrStaleQuestion.
func (e *RoundEngine) RecordAnswer(roomID, playerName string, questionID, optionIndex int) (bool, int, error) {
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return false, 0, domain.ErrRoomNotFound
	}
	return room.recordAnswer(playerName, questionID, optionIndex)
}

// ReleaseAnswer forgets a departed player's answer and re-checks all-answered.
func (e *RoundEngine) ReleaseAnswer(roomID, playerName string) (bool, int) {
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return false, 0
	}
	return room.releaseAnswer(playerName)
}

// EvaluateRound scores the current round. Seated players without an answer are
// reported incorrect. Callers must have won the round guard first.
func (e *RoundEngine) EvaluateRound(roomID string) map[string]bool {
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return map[string]bool{}
	}
	return room.evaluateRound()
}

// ResetRoundState opens the next round and returns its fresh timer handle.
func (e *RoundEngine) ResetRoundState(roomID string) *RoundTimer {
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return nil
	}
	return room.resetRoundState()
}

// FinishGame produces the history record and puts the room back to waiting.
func (e *RoundEngine) FinishGame(roomID string) (domain.GameHistory, bool) {
	room, ok := e.rooms.Get(roomID)
	if !ok {
		return domain.GameHistory{}, false
	}
	return room.finish(e.now().UTC())
}
