package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

func TestWebSocketGameFlow(t *testing.T) {
	server, _ := newTestServer(t)

	alice := dial(t, server)
	bob := dial(t, server)

	send(t, alice, "CreateRoom", map[string]any{"roomName": "Trivia Night", "playerName": "Alice"})
	created := readUntil(t, alice, "RoomCreated")
	roomID, _ := created["id"].(string)
	if len(roomID) != app.RoomCodeLength {
		t.Fatalf("expected a %d character room code, got %q", app.RoomCodeLength, roomID)
	}
	readUntil(t, alice, "PlayersList")

	send(t, bob, "JoinRoom", map[string]any{"roomId": strings.ToLower(roomID), "playerName": "Bob"})
	joined := readUntil(t, bob, "RoomJoined")
	if joined["id"] != roomID || joined["name"] != "Trivia Night" {
		t.Fatalf("unexpected RoomJoined payload: %v", joined)
	}
	readUntil(t, alice, "PlayerJoined")

	send(t, alice, "StartGame", map[string]any{"roomId": roomID, "category": int(domain.CategoryMath)})
	readUntil(t, alice, "GameStarted")
	question := readUntil(t, alice, "ReceiveQuestion")
	if _, leaked := question["correctOptionIndex"]; leaked {
		t.Fatalf("question payload leaks the answer: %v", question)
	}
	timer := readUntil(t, alice, "TimerStarted")
	if timer["seconds"] != float64(2) {
		t.Fatalf("expected a 2 second countdown, got %v", timer)
	}
	readUntil(t, bob, "ReceiveQuestion")

	questionID := question["id"]
	send(t, alice, "SubmitAnswer", map[string]any{"roomId": roomID, "questionId": questionID, "selectedOptionIndex": 1, "playerName": "Alice"})
	send(t, bob, "SubmitAnswer", map[string]any{"roomId": roomID, "questionId": questionID, "selectedOptionIndex": 0, "playerName": "Bob"})

	results := readUntil(t, alice, "RoundResults")
	if results["Alice"] != true || results["Bob"] != false {
		t.Fatalf("unexpected round results: %v", results)
	}
	scores := readUntil(t, alice, "GameOver")
	if scores["Alice"] != float64(1) || scores["Bob"] != float64(0) {
		t.Fatalf("unexpected final scores: %v", scores)
	}

	var games []domain.GameHistory
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		games = fetchHistory(t, server)
		if len(games) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(games) != 1 {
		t.Fatalf("expected one finished game, got %d", len(games))
	}
	if games[0].RoomName != "Trivia Night" || games[0].TotalQuestions != 1 {
		t.Fatalf("unexpected history record: %+v", games[0])
	}
}

func TestWebSocketReportsErrors(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server)

	send(t, conn, "JoinRoom", map[string]any{"roomId": "NOPE00", "playerName": "Carol"})
	if got := readUntil(t, conn, "Error"); got["message"] != domain.ErrRoomNotFound.Error() {
		t.Fatalf("expected room not found, got %v", got)
	}

	send(t, conn, "Dance", nil)
	if got := readUntil(t, conn, "Error"); got["message"] != "unsupported message type" {
		t.Fatalf("expected unsupported message type, got %v", got)
	}

	send(t, conn, "CreateRoom", map[string]any{"roomName": " ", "playerName": "Carol"})
	if got := readUntil(t, conn, "Error"); got["message"] != domain.ErrInvalidInput.Error() {
		t.Fatalf("expected invalid input, got %v", got)
	}
}

func TestWebSocketCategories(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server)

	send(t, conn, "GetCategories", nil)
	var msg struct {
		Type    string `json:"type"`
		Payload []int  `json:"payload"`
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "ReceiveCategories" || len(msg.Payload) != 2 {
		t.Fatalf("expected two categories, got %+v", msg)
	}
}

func TestDisconnectEmptiesRoom(t *testing.T) {
	server, rooms := newTestServer(t)
	conn := dial(t, server)

	send(t, conn, "CreateRoom", map[string]any{"roomName": "Short", "playerName": "Dana"})
	roomID, _ := readUntil(t, conn, "RoomCreated")["id"].(string)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := rooms.Get(roomID); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %s survived its last player", roomID)
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.RoomStore) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	rooms := memory.NewRoomStore()
	hub := NewHub(logger)
	controller := app.NewGameController(
		rooms,
		memory.NewStaticQuestionBank(sampleQuestions()),
		memory.NewHistoryStore(),
		hub,
		logger,
		app.Timings{
			QuestionTimeout: 2 * time.Second,
			ResultsDelay:    10 * time.Millisecond,
			PersistTimeout:  time.Second,
			HistoryLimit:    20,
		},
	)
	server := httptest.NewServer(NewRouter(controller, hub, logger))
	t.Cleanup(func() {
		server.Close()
		controller.Close()
	})
	return server, rooms
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips events until one of type expect arrives and returns its payload.
func readUntil(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read while waiting for %s: %v", expect, err)
		}
		if msg.Type != expect {
			continue
		}
		payload := map[string]any{}
		if len(msg.Payload) > 0 && msg.Payload[0] == '{' {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				t.Fatalf("decode %s payload: %v", expect, err)
			}
		}
		return payload
	}
	t.Fatalf("never received %s", expect)
	return nil
}

func fetchHistory(t *testing.T, server *httptest.Server) []domain.GameHistory {
	t.Helper()
	resp, err := http.Get(server.URL + "/api/gamehistory")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var games []domain.GameHistory
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	return games
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOptionIndex: 1, Category: domain.CategoryMath},
		{ID: 2, Text: "Pick the noun", Options: []string{"run", "table"}, CorrectOptionIndex: 1, Category: domain.CategoryEnglish},
	}
}
