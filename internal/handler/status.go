package handler

import (
	"net/http"
	"time"

	"pneumoscan/internal/dto"
	"pneumoscan/internal/logger"
	"pneumoscan/internal/middleware"
	"pneumoscan/internal/models"
	"pneumoscan/internal/service/session"
	"pneumoscan/internal/service/websocket"

	gorilla "github.com/gorilla/websocket"
)

var Upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const statusReadTimeout = 60 * time.Second

// StatusWebsocketHandler serves GET /api/status. The current state is sent
// first, then the hub pushes every change for the browser's session.
func StatusWebsocketHandler(hub *websocket.HubService, sessions *session.Service, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := middleware.SessionID(r.Context())
		sess, ok := loadSession(w, r, sessions, logger)
		if !ok {
			return
		}

		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade error: %v", err)
			return
		}
		defer connection.Close()

		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(statusReadTimeout))
		connection.SetPongHandler(func(string) error {
			connection.SetReadDeadline(time.Now().Add(statusReadTimeout))
			return nil
		})

		if err := connection.WriteJSON(currentStatus(sess, sessions.IsBusy(id))); err != nil {
			logger.Debug("Failed to send initial status to session %s: %v", id, err)
			return
		}

		hub.Register(id, connection)
		defer hub.Unregister(id, connection)

		// Reads only keep the deadline fresh and notice the close.
		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				return
			}
			connection.SetReadDeadline(time.Now().Add(statusReadTimeout))
		}
	}
}

func currentStatus(sess *models.Session, busy bool) dto.StatusEvent {
	event := dto.StatusEvent{Status: dto.StatusIdle, Screen: string(sess.Screen), Message: sess.Error}
	switch {
	case busy:
		event.Status = dto.StatusAnalyzing
	case sess.Error != "":
		event.Status = dto.StatusError
	case sess.Screen == models.ScreenResults:
		event.Status = dto.StatusResults
	}
	return event
}
