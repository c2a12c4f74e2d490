package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

const writeWait = 10 * time.Second

// Inbound command names.
const (
	msgCreateRoom    = "CreateRoom"
	msgJoinRoom      = "JoinRoom"
	msgGetCategories = "GetCategories"
	msgStartGame     = "StartGame"
	msgSubmitAnswer  = "SubmitAnswer"
)

type WSHandler struct {
	controller *app.GameController
	hub        *Hub
	log        logrus.FieldLogger
	upgrader   websocket.Upgrader
}

func NewWSHandler(controller *app.GameController, hub *Hub, logger logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		controller: controller,
		hub:        hub,
		log:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createRoomPayload struct {
	RoomName   string `json:"roomName"`
	PlayerName string `json:"playerName"`
}

type joinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type startGamePayload struct {
	RoomID   string          `json:"roomId"`
	Category domain.Category `json:"category"`
}

type submitAnswerPayload struct {
	RoomID              string `json:"roomId"`
	QuestionID          int    `json:"questionId"`
	SelectedOptionIndex int    `json:"selectedOptionIndex"`
	PlayerName          string `json:"playerName"`
}

// ServeWS upgrades the request, gives the socket a connection id and feeds its
// commands to the controller until the client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	connectionID := uuid.NewString()
	logger := h.log.WithFields(logrus.Fields{"conn": connectionID, "remote": r.RemoteAddr})
	logger.Info("websocket connected")

	events := h.hub.Register(connectionID)
	writerDone := make(chan struct{})

	// single writer; gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for event := range events {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.WithError(err).Debug("ws write error")
				// drain until Unregister closes the queue
				for range events {
				}
				return
			}
		}
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	}()

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).Info("websocket closed unexpectedly")
			}
			break
		}
		if err := h.dispatch(ctx, connectionID, inbound); err != nil {
			h.hub.Notify(connectionID, domain.Event{Type: domain.EventError, Payload: domain.ErrorInfo{Message: h.clientMessage(logger, inbound.Type, err)}})
		}
	}

	h.controller.Disconnect(context.WithoutCancel(ctx), connectionID)
	h.hub.Unregister(connectionID)
	<-writerDone
	logger.Info("websocket disconnected")
}

func (h *WSHandler) dispatch(ctx context.Context, connectionID string, inbound inboundMessage) error {
	switch inbound.Type {
	case msgCreateRoom:
		var p createRoomPayload
		if err := decodePayload(inbound.Payload, &p); err != nil {
			return err
		}
		_, err := h.controller.CreateRoom(ctx, connectionID, p.RoomName, p.PlayerName)
		return err
	case msgJoinRoom:
		var p joinRoomPayload
		if err := decodePayload(inbound.Payload, &p); err != nil {
			return err
		}
		return h.controller.JoinRoom(ctx, connectionID, p.RoomID, p.PlayerName)
	case msgGetCategories:
		return h.controller.GetCategories(ctx, connectionID)
	case msgStartGame:
		var p startGamePayload
		if err := decodePayload(inbound.Payload, &p); err != nil {
			return err
		}
		return h.controller.StartGame(ctx, connectionID, p.RoomID, p.Category)
	case msgSubmitAnswer:
		var p submitAnswerPayload
		if err := decodePayload(inbound.Payload, &p); err != nil {
			return err
		}
		return h.controller.SubmitAnswer(ctx, connectionID, p.RoomID, p.QuestionID, p.SelectedOptionIndex, p.PlayerName)
	default:
		return errUnsupportedMessage
	}
}

var (
	errUnsupportedMessage = errors.New("unsupported message type")
	errInvalidPayload     = errors.New("invalid payload")
)

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errInvalidPayload
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errInvalidPayload
	}
	return nil
}

// clientErrors are safe to show to players verbatim.
var clientErrors = []error{
	errUnsupportedMessage,
	errInvalidPayload,
	domain.ErrRoomNotFound,
	domain.ErrDuplicatePlayerName,
	domain.ErrInvalidStateTransition,
	domain.ErrPlayerNotFound,
	domain.ErrNoQuestions,
	domain.ErrUnknownCategory,
	domain.ErrInvalidInput,
	domain.ErrAlreadyInRoom,
	domain.ErrNoActiveRound,
	domain.ErrStaleQuestion,
	domain.ErrInvalidOption,
}

func (h *WSHandler) clientMessage(logger logrus.FieldLogger, command string, err error) string {
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	logger.WithError(err).WithField("command", command).Error("command failed")
	return "internal error"
}
