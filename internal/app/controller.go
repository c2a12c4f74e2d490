package app

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"trivia-room-service/internal/domain"
)

// HistoryStore persists finished games and lists the most recent ones.
type HistoryStore interface {
	Append(ctx context.Context, history domain.GameHistory) error
	Recent(ctx context.Context, limit int) ([]domain.GameHistory, error)
}

// Notifier delivers an event to a single connection.
type Notifier interface {
	Notify(connectionID string, event domain.Event)
}

// Timings are the fixed bounds of a round.
type Timings struct {
	QuestionTimeout time.Duration
	ResultsDelay    time.Duration
	PersistTimeout  time.Duration
	HistoryLimit    int
}

// DefaultTimings returns the production round bounds.
func DefaultTimings() Timings {
	return Timings{
		QuestionTimeout: 15 * time.Second,
		ResultsDelay:    5 * time.Second,
		PersistTimeout:  5 * time.Second,
		HistoryLimit:    20,
	}
}

// GameController is the entry point for transport commands. It sequences membership,
// round engine and history calls and decides what to broadcast.
type GameController struct {
	rooms      RoomRepository
	membership *Membership
	engine     *RoundEngine
	questions  QuestionBank
	history    HistoryStore
	notifier   Notifier
	log        logrus.FieldLogger
	timings    Timings
	now        func() time.Time

	connMu      sync.Mutex
	connections map[string]string // connection id -> room id

	wg sync.WaitGroup
}

func NewGameController(rooms RoomRepository, questions QuestionBank, history HistoryStore, notifier Notifier, logger logrus.FieldLogger, timings Timings) *GameController {
	return &GameController{
		rooms:       rooms,
		membership:  NewMembership(rooms),
		engine:      NewRoundEngine(rooms, questions),
		questions:   questions,
		history:     history,
		notifier:    notifier,
		log:         logger,
		timings:     timings,
		now:         time.Now,
		connections: make(map[string]string),
	}
}

// CreateRoom opens a room with the caller as its first player and returns the room code.
func (c *GameController) CreateRoom(_ context.Context, connectionID, roomName, playerName string) (string, error) {
	roomName, playerName = strings.TrimSpace(roomName), strings.TrimSpace(playerName)
	if roomName == "" || playerName == "" {
		return "", domain.ErrInvalidInput
	}
	if _, ok := c.roomOf(connectionID); ok {
		return "", domain.ErrAlreadyInRoom
	}

	player := domain.Player{ConnectionID: connectionID, Name: playerName, JoinedAt: c.now().UTC()}
	room := c.rooms.Create(roomName, player)
	if !c.track(connectionID, room.ID()) {
		// lost a race with another command on the same connection
		room.removePlayer(connectionID)
		c.rooms.RemoveIfEmpty(room.ID())
		return "", domain.ErrAlreadyInRoom
	}

	c.log.WithFields(logrus.Fields{"room": room.ID(), "player": playerName}).Info("room created")
	c.notifier.Notify(connectionID, domain.Event{Type: domain.EventRoomCreated, Payload: domain.RoomInfo{ID: room.ID(), Name: room.Name()}})
	c.notifier.Notify(connectionID, domain.Event{Type: domain.EventPlayersList, Payload: room.playersNow()})
	return room.ID(), nil
}

// JoinRoom seats the caller in an existing room.
func (c *GameController) JoinRoom(_ context.Context, connectionID, roomID, playerName string) error {
	roomID, playerName = normalizeRoomID(roomID), strings.TrimSpace(playerName)
	if roomID == "" || playerName == "" {
		return domain.ErrInvalidInput
	}
	if _, ok := c.roomOf(connectionID); ok {
		return domain.ErrAlreadyInRoom
	}

	player := domain.Player{ConnectionID: connectionID, Name: playerName, JoinedAt: c.now().UTC()}
	room, err := c.membership.Join(roomID, player)
	if err != nil {
		return err
	}
	if !c.track(connectionID, roomID) {
		room.removePlayer(connectionID)
		return domain.ErrAlreadyInRoom
	}

	c.log.WithFields(logrus.Fields{"room": roomID, "player": playerName}).Info("player joined")
	c.broadcast(room, domain.Event{Type: domain.EventPlayerJoined, Payload: playerName})
	c.notifier.Notify(connectionID, domain.Event{Type: domain.EventPlayersList, Payload: room.playersNow()})
	c.notifier.Notify(connectionID, domain.Event{Type: domain.EventRoomJoined, Payload: domain.RoomInfo{ID: room.ID(), Name: room.Name()}})
	return nil
}

// GetCategories sends the categories present in the question bank to the caller.
func (c *GameController) GetCategories(ctx context.Context, connectionID string) error {
	categories, err := c.questions.Categories(ctx)
	if err != nil {
		return err
	}
	c.notifier.Notify(connectionID, domain.Event{Type: domain.EventReceiveCategories, Payload: categories})
	return nil
}

// StartGame starts play in a waiting room and arms the first round.
func (c *GameController) StartGame(ctx context.Context, connectionID, roomID string, category domain.Category) error {
	roomID = normalizeRoomID(roomID)
	room, ok := c.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if _, seated := room.playerByConnection(connectionID); !seated {
		return domain.ErrPlayerNotFound
	}

	started, err := c.engine.StartGame(ctx, roomID, category)
	if err != nil {
		return err
	}
	if !started {
		return domain.ErrInvalidStateTransition
	}
	question, ok := c.engine.CurrentQuestion(roomID)
	if !ok {
		return domain.ErrNoQuestions
	}

	timer := c.engine.ResetRoundState(roomID)
	if timer == nil {
		return domain.ErrRoomNotFound
	}
	c.log.WithFields(logrus.Fields{"room": roomID, "category": category.String()}).Info("game started")
	c.broadcast(room, domain.Event{Type: domain.EventGameStarted})
	c.announceQuestion(room, question)

	c.wg.Add(1)
	go c.runRounds(room, timer)
	return nil
}

// SubmitAnswer records the caller's answer and completes the round early when it
// was the last one missing.
func (c *GameController) SubmitAnswer(_ context.Context, connectionID, roomID string, questionID, optionIndex int, playerName string) error {
	roomID = normalizeRoomID(roomID)
	room, ok := c.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}
	player, seated := room.playerByConnection(connectionID)
	if !seated || (playerName != "" && playerName != player.Name) {
		return domain.ErrPlayerNotFound
	}

	allAnswered, round, err := c.engine.RecordAnswer(roomID, player.Name, questionID, optionIndex)
	if err != nil {
		return err
	}
	if allAnswered {
		c.completeEarly(room, round, "all players answered")
	}
	return nil
}

// Disconnect removes the connection's player, finishes the round if the remaining
// players have all answered, and drops the room once it is empty.
func (c *GameController) Disconnect(_ context.Context, connectionID string) {
	roomID, ok := c.untrack(connectionID)
	if !ok {
		return
	}
	logger := c.log.WithFields(logrus.Fields{"room": roomID, "conn": connectionID})

	player, err := c.membership.Leave(roomID, connectionID)
	if err != nil {
		logger.WithError(err).Warn("disconnect for untracked player")
		return
	}
	logger.WithField("player", player.Name).Info("player left")

	room, ok := c.rooms.Get(roomID)
	if !ok {
		return
	}
	c.broadcast(room, domain.Event{Type: domain.EventPlayerLeft, Payload: player.Name})

	if allAnswered, round := c.engine.ReleaseAnswer(roomID, player.Name); allAnswered {
		c.completeEarly(room, round, "remaining players answered")
	}

	if c.rooms.RemoveIfEmpty(roomID) {
		logger.Info("room removed")
	}
}

// RecentHistory lists the most recently finished games, newest first.
func (c *GameController) RecentHistory(ctx context.Context) ([]domain.GameHistory, error) {
	return c.history.Recent(ctx, c.timings.HistoryLimit)
}

// Close tears down every live room and waits for their round loops to exit.
func (c *GameController) Close() {
	for _, room := range c.rooms.All() {
		room.Close()
		c.rooms.Remove(room.ID())
	}
	c.wg.Wait()
}

// runRounds owns the countdown of a running game. Each iteration waits on one
// round's handle; the early-completion paths only evaluate and then cancel the
// handle, so every transition to the next round happens here.
func (c *GameController) runRounds(room *Room, timer *RoundTimer) {
	defer c.wg.Done()
	logger := c.log.WithField("room", room.ID())

	for {
		outcome := timer.Wait(c.timings.QuestionTimeout)
		if outcome == TimerFired && room.claimRound(timer.Round()) {
			logger.WithField("round", timer.Round()).Debug("question timer expired")
			c.publishRoundResults(room)
		} else if !c.awaitRound(room, timer) {
			return
		}

		if room.Closed() {
			return
		}
		next, ok := c.engine.Advance(room.ID())
		if !ok {
			c.finishGame(room)
			return
		}
		if !c.pause(room, c.timings.ResultsDelay) {
			return
		}
		if timer = c.engine.ResetRoundState(room.ID()); timer == nil {
			return
		}
		c.announceQuestion(room, next)
	}
}

// awaitRound blocks until whoever claimed the round has released its handle.
func (c *GameController) awaitRound(room *Room, timer *RoundTimer) bool {
	select {
	case <-timer.Done():
		return !room.Closed()
	case <-room.Done():
		return false
	}
}

func (c *GameController) pause(room *Room, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return !room.Closed()
	case <-room.Done():
		return false
	}
}

// completeEarly finishes round ahead of its countdown if the round guard allows it.
func (c *GameController) completeEarly(room *Room, round int, reason string) {
	if !room.claimRound(round) {
		return
	}
	c.log.WithFields(logrus.Fields{"room": room.ID(), "round": round}).Debug(reason)
	c.publishRoundResults(room)
	room.cancelRound(round)
}

func (c *GameController) publishRoundResults(room *Room) {
	results := c.engine.EvaluateRound(room.ID())
	c.broadcast(room, domain.Event{Type: domain.EventRoundResults, Payload: results})
	c.broadcast(room, domain.Event{Type: domain.EventUpdateScores, Payload: room.scoresNow()})
}

func (c *GameController) finishGame(room *Room) {
	logger := c.log.WithField("room", room.ID())
	c.broadcast(room, domain.Event{Type: domain.EventGameOver, Payload: room.scoresNow()})

	history, ok := c.engine.FinishGame(room.ID())
	if !ok {
		return
	}
	logger.WithField("questions", history.TotalQuestions).Info("game over")

	ctx, cancel := context.WithTimeout(context.Background(), c.timings.PersistTimeout)
	defer cancel()
	if err := c.history.Append(ctx, history); err != nil {
		logger.WithError(err).Error("failed to save game history")
	}
}

func (c *GameController) announceQuestion(room *Room, question domain.Question) {
	c.broadcast(room, domain.Event{Type: domain.EventReceiveQuestion, Payload: question.View()})
	c.broadcast(room, domain.Event{Type: domain.EventTimerStarted, Payload: domain.TimerInfo{Seconds: seconds(c.timings.QuestionTimeout)}})
}

func (c *GameController) broadcast(room *Room, event domain.Event) {
	if room.Closed() {
		return
	}
	for _, p := range room.playersNow() {
		c.notifier.Notify(p.ConnectionID, event)
	}
}

func (c *GameController) track(connectionID, roomID string) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if _, ok := c.connections[connectionID]; ok {
		return false
	}
	c.connections[connectionID] = roomID
	return true
}

func (c *GameController) untrack(connectionID string) (string, bool) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	roomID, ok := c.connections[connectionID]
	delete(c.connections, connectionID)
	return roomID, ok
}

func (c *GameController) roomOf(connectionID string) (string, bool) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	roomID, ok := c.connections[connectionID]
	return roomID, ok
}

func normalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
