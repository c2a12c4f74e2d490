package domain

// EventType names an outbound event delivered to clients.
type EventType string

const (
	EventRoomCreated       EventType = "RoomCreated"
	EventPlayerJoined      EventType = "PlayerJoined"
	EventPlayerLeft        EventType = "PlayerLeft"
	EventPlayersList       EventType = "PlayersList"
	EventRoomJoined        EventType = "RoomJoined"
	EventGameStarted       EventType = "GameStarted"
	EventReceiveQuestion   EventType = "ReceiveQuestion"
	EventTimerStarted      EventType = "TimerStarted"
	EventRoundResults      EventType = "RoundResults"
	EventUpdateScores      EventType = "UpdateScores"
	EventGameOver          EventType = "GameOver"
	EventReceiveCategories EventType = "ReceiveCategories"
	EventError             EventType = "Error"
)

// Event is a typed envelope addressed to one or more connections.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// RoomInfo is the payload of RoomCreated and RoomJoined.
type RoomInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QuestionView is what players see of a question; the correct option is never sent.
type QuestionView struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// TimerInfo is the payload of TimerStarted.
type TimerInfo struct {
	Seconds int `json:"seconds"`
}

// ErrorInfo is the payload of Error.
type ErrorInfo struct {
	Message string `json:"message"`
}

// View strips the answer key from q.
func (q Question) View() QuestionView {
	return QuestionView{ID: q.ID, Text: q.Text, Options: q.Options}
}
