package http

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"trivia-room-service/internal/app"
)

// NewRouter mounts the websocket endpoint, the history listing and the health probe.
func NewRouter(controller *app.GameController, hub *Hub, logger logrus.FieldLogger) http.Handler {
	ws := NewWSHandler(controller, hub, logger)
	history := NewHistoryHandler(controller, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", ws.ServeWS)
	mux.Handle("GET /api/gamehistory", history)
	return LogMiddleware(logger)(mux)
}
