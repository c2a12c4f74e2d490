package app

import (
	"context"
	"sync"
	"time"

	"trivia-room-service/internal/domain"
)

// RoomRepository abstracts where live rooms are kept (in-memory, Redis-marked, etc).
type RoomRepository interface {
	// Create allocates a fresh code and stores a waiting room seating only creator.
	Create(name string, creator domain.Player) *Room
	Get(roomID string) (*Room, bool)
	// Remove deletes a room; removing an unknown id is a no-op.
	Remove(roomID string)
	// RemoveIfEmpty closes and deletes the room when nobody is seated.
	RemoveIfEmpty(roomID string) bool
	All() []*Room
}

// Room is the in-memory state of one game session.
//
// Lock order is mu before roundMu. roundMu guards the round counter, the
// evaluated flag and the timer handle; everything else is guarded by mu.
type Room struct {
	id   string
	name string

	lifetime context.Context
	cancel   context.CancelFunc

	mu        sync.Mutex
	state     domain.RoomState
	category  domain.Category
	questions []domain.Question
	index     int
	players   []domain.Player
	answers   map[string]int
	scores    map[string]int
	closed    bool

	roundMu        sync.Mutex
	round          int
	roundEvaluated bool
	timer          *RoundTimer
}

// NewRoom is exported for repositories that need to build rooms.
func NewRoom(id, name string, creator domain.Player) *Room {
	ctx, cancel := context.WithCancel(context.Background())
	// round 0 counts as evaluated: nothing can be answered or claimed until
	// resetRoundState opens round 1
	return &Room{
		id:             id,
		name:           name,
		lifetime:       ctx,
		cancel:         cancel,
		state:          domain.StateWaiting,
		players:        []domain.Player{creator},
		answers:        make(map[string]int),
		scores:         make(map[string]int),
		roundEvaluated: true,
	}
}

func (r *Room) ID() string   { return r.id }
func (r *Room) Name() string { return r.name }

// Done is closed once the room has been closed.
func (r *Room) Done() <-chan struct{} {
	return r.lifetime.Done()
}

// Closed reports whether the room has been torn down.
func (r *Room) Closed() bool {
	return r.lifetime.Err() != nil
}

// Close marks the room as gone and cancels any in-flight round timer.
func (r *Room) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
}

// CloseIfEmpty closes the room when no player is seated and reports whether it did.
// The check and the close are atomic with respect to joins.
func (r *Room) CloseIfEmpty() bool {
	r.mu.Lock()
	if len(r.players) > 0 {
		r.mu.Unlock()
		return false
	}
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	return true
}

// IsEmpty reports whether the room has no players.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == 0
}

// Snapshot copies the room state.
func (r *Room) Snapshot() domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.RoomSnapshot{
		ID:                   r.id,
		Name:                 r.name,
		State:                r.state,
		Category:             r.category,
		Players:              append([]domain.Player(nil), r.players...),
		QuestionCount:        len(r.questions),
		CurrentQuestionIndex: r.index,
		Scores:               copyScores(r.scores),
	}
}

func (r *Room) stateNow() domain.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) playersNow() []domain.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Player(nil), r.players...)
}

func (r *Room) scoresNow() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyScores(r.scores)
}

func (r *Room) playerByConnection(connectionID string) (domain.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ConnectionID == connectionID {
			return p, true
		}
	}
	return domain.Player{}, false
}

// addPlayer seats p. The duplicate-name check and the append happen under one lock
// so two concurrent joins with the same name cannot both succeed.
func (r *Room) addPlayer(p domain.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrRoomNotFound
	}
	for _, existing := range r.players {
		if existing.Name == p.Name {
			return domain.ErrDuplicatePlayerName
		}
	}
	r.players = append(r.players, p)
	if r.state == domain.StatePlaying {
		if _, ok := r.scores[p.Name]; !ok {
			r.scores[p.Name] = 0
		}
	}
	return nil
}

func (r *Room) removePlayer(connectionID string) (domain.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.players {
		if p.ConnectionID == connectionID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return p, true
		}
	}
	return domain.Player{}, false
}

func (r *Room) startGame(category domain.Category, questions []domain.Question) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != domain.StateWaiting {
		return false
	}
	r.category = category
	r.questions = append([]domain.Question(nil), questions...)
	r.index = 0
	r.state = domain.StatePlaying
	r.answers = make(map[string]int)
	r.scores = make(map[string]int, len(r.players))
	for _, p := range r.players {
		r.scores[p.Name] = 0
	}
	r.roundMu.Lock()
	r.roundEvaluated = true
	r.roundMu.Unlock()
	return true
}

func (r *Room) currentQuestion() (domain.Question, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentQuestionLocked()
}

func (r *Room) currentQuestionLocked() (domain.Question, bool) {
	if r.state != domain.StatePlaying || r.index >= len(r.questions) {
		return domain.Question{}, false
	}
	return r.questions[r.index], true
}

func (r *Room) advance() (domain.Question, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != domain.StatePlaying {
		return domain.Question{}, false
	}
	r.index++
	return r.currentQuestionLocked()
}

// recordAnswer overwrites any earlier answer from the same player and reports whether
// every seated player has now answered, together with the round the answer landed in.
// The answer must target the question that is current under the lock.
func (r *Room) recordAnswer(playerName string, questionID, option int) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	question, ok := r.currentQuestionLocked()
	if !ok {
		return false, 0, domain.ErrNoActiveRound
	}
	if question.ID != questionID {
		return false, 0, domain.ErrStaleQuestion
	}
	if option < 0 || option >= len(question.Options) {
		return false, 0, domain.ErrInvalidOption
	}
	r.roundMu.Lock()
	round, evaluated := r.round, r.roundEvaluated
	r.roundMu.Unlock()
	if evaluated {
		return false, round, domain.ErrNoActiveRound
	}
	r.answers[playerName] = option
	return len(r.answers) == len(r.players), round, nil
}

// releaseAnswer drops a departed player's answer and re-checks the all-answered
// condition against the remaining players.
func (r *Room) releaseAnswer(playerName string) (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.answers, playerName)
	if _, ok := r.currentQuestionLocked(); !ok {
		return false, 0
	}
	r.roundMu.Lock()
	round, evaluated := r.round, r.roundEvaluated
	r.roundMu.Unlock()
	if evaluated || len(r.players) == 0 {
		return false, round
	}
	return len(r.answers) == len(r.players), round
}

// evaluateRound must only run for the caller that won claimRound.
func (r *Room) evaluateRound() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make(map[string]bool, len(r.players))
	question, ok := r.currentQuestionLocked()
	if !ok {
		return results
	}
	for name, option := range r.answers {
		correct := option == question.CorrectOptionIndex
		if correct {
			r.scores[name]++
		}
		results[name] = correct
	}
	for _, p := range r.players {
		if _, answered := results[p.Name]; !answered {
			results[p.Name] = false
		}
	}
	r.answers = make(map[string]int)
	return results
}

// resetRoundState opens a new round and returns its timer handle. The previous
// handle is cancelled so a stale countdown can never act on the new round.
func (r *Room) resetRoundState() *RoundTimer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = make(map[string]int)

	r.roundMu.Lock()
	defer r.roundMu.Unlock()
	if r.timer != nil {
		r.timer.Cancel()
	}
	r.round++
	r.roundEvaluated = false
	r.timer = newRoundTimer(r.lifetime, r.round)
	return r.timer
}

// claimRound is the round guard: the first caller for a still-open round wins.
func (r *Room) claimRound(round int) bool {
	r.roundMu.Lock()
	defer r.roundMu.Unlock()
	if round != r.round || r.roundEvaluated {
		return false
	}
	r.roundEvaluated = true
	return true
}

// cancelRound releases the countdown of round if it is still the current one.
func (r *Room) cancelRound(round int) {
	r.roundMu.Lock()
	defer r.roundMu.Unlock()
	if r.timer != nil && r.timer.Round() == round {
		r.timer.Cancel()
	}
}

// finish ends the game in place: the room goes back to waiting with its players,
// and the finished game's questions and cursor are dropped.
func (r *Room) finish(playedAt time.Time) (domain.GameHistory, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != domain.StatePlaying {
		return domain.GameHistory{}, false
	}
	history := domain.GameHistory{
		RoomName:       r.name,
		Category:       r.category,
		PlayedAt:       playedAt,
		TotalQuestions: len(r.questions),
		PlayerResults:  domain.PlayerResults(r.players, r.scores),
	}
	r.state = domain.StateWaiting
	r.questions = nil
	r.index = 0
	r.answers = make(map[string]int)
	return history, true
}

func copyScores(scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}
