package domain

import (
	"fmt"
	"time"
)

// RoomState is the lifecycle phase of a room.
type RoomState int

const (
	StateWaiting RoomState = iota
	StatePlaying
	StateFinished
)

func (s RoomState) String() string {
	switch s {
	case StateWaiting:
		return "Waiting"
	case StatePlaying:
		return "Playing"
	case StateFinished:
		return "Finished"
	default:
		return fmt.Sprintf("RoomState(%d)", int(s))
	}
}

// Category is the question topic. It is persisted as its integer code.
type Category int

const (
	CategoryMath Category = iota
	CategoryEnglish
	CategoryGeneralKnowledge
	CategoryDotNetDevelopment
)

var categoryNames = map[Category]string{
	CategoryMath:              "Math",
	CategoryEnglish:           "English",
	CategoryGeneralKnowledge:  "GeneralKnowledge",
	CategoryDotNetDevelopment: "DotNetDevelopment",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Valid reports whether c is part of the catalogue.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// Question is immutable reference data owned by the question bank.
type Question struct {
	ID                 int      `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Category           Category `json:"category"`
}

// Player is one connected participant of a room.
type Player struct {
	ConnectionID string    `json:"connectionId"`
	Name         string    `json:"name"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// PlayerResult is a single player's line in a finished game.
type PlayerResult struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsWinner bool   `json:"isWinner"`
}

// GameHistory is the immutable record produced once per finished game.
type GameHistory struct {
	ID             int64          `json:"id,omitempty"`
	RoomName       string         `json:"roomName"`
	Category       Category       `json:"category"`
	PlayedAt       time.Time      `json:"playedAt"`
	TotalQuestions int            `json:"totalQuestions"`
	PlayerResults  []PlayerResult `json:"playerResults"`
}

// RoomSnapshot is a copy of a room's state, safe to read without locks.
type RoomSnapshot struct {
	ID                   string
	Name                 string
	State                RoomState
	Category             Category
	Players              []Player
	QuestionCount        int
	CurrentQuestionIndex int
	Scores               map[string]int
}

// PlayerResults builds the per-player lines for a finished game. The winning score is
// the maximum over every score of the game, players who already left included; a
// seated player wins when they match it and it is above zero.
func PlayerResults(players []Player, scores map[string]int) []PlayerResult {
	maxScore := 0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	results := make([]PlayerResult, 0, len(players))
	for _, p := range players {
		score := scores[p.Name]
		results = append(results, PlayerResult{
			Name:     p.Name,
			Score:    score,
			IsWinner: maxScore > 0 && score == maxScore,
		})
	}
	return results
}
