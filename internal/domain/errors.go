package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room code does not match a live room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrDuplicatePlayerName is returned when the chosen name is already seated in the room.
	ErrDuplicatePlayerName = errors.New("a player with that name is already in the room")
	// ErrInvalidStateTransition is returned when a game is started outside the waiting state.
	ErrInvalidStateTransition = errors.New("could not start game")
	// ErrPlayerNotFound indicates a connection or name is not seated in the room.
	ErrPlayerNotFound = errors.New("player not found in room")
	// ErrNoQuestions indicates the question bank has nothing for the selected category.
	ErrNoQuestions = errors.New("no questions available for category")
	// ErrUnknownCategory indicates a category code outside the catalogue.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidInput covers blank room or player names.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyInRoom is returned when a connection that is already seated creates or joins a room.
	ErrAlreadyInRoom = errors.New("connection is already in a room")
	// ErrNoActiveRound is returned for answers submitted while no round is open.
	ErrNoActiveRound = errors.New("no active round")
	// ErrStaleQuestion is returned for answers that target a question other than the current one.
	ErrStaleQuestion = errors.New("answer is for a different question")
	// ErrInvalidOption is returned when the option index is out of range.
	ErrInvalidOption = errors.New("option not found")
)
