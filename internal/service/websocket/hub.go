package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"pneumoscan/internal/dto"
	"pneumoscan/internal/logger"

	"github.com/gorilla/websocket"
)

type client struct {
	sessionID string
	conn      *websocket.Conn
}

type message struct {
	sessionID string
	payload   []byte
}

// HubService fans status events out to the websocket connections of one
// browser session. All writes happen on the Run goroutine.
type HubService struct {
	clients    map[string]map[*websocket.Conn]bool
	broadcast  chan message
	register   chan client
	unregister chan client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
	writeWait  time.Duration
}

// defaultWriteWait bounds each status write on the Run goroutine.
const defaultWriteWait = 10 * time.Second

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[string]map[*websocket.Conn]bool),
		broadcast:  make(chan message, 64),
		register:   make(chan client),
		unregister: make(chan client),
		done:       make(chan struct{}),
		logger:     logger,
		writeWait:  defaultWriteWait,
	}
}

func (h *HubService) Run() {
	for {
		select {
		case c := <-h.register:
			h.mutex.Lock()
			if h.clients[c.sessionID] == nil {
				h.clients[c.sessionID] = make(map[*websocket.Conn]bool)
			}
			h.clients[c.sessionID][c.conn] = true
			h.mutex.Unlock()
			h.logger.Debug("Status client connected for session %s. Total: %d", c.sessionID, h.GetClientCount())

		case c := <-h.unregister:
			h.remove(c.sessionID, c.conn)
			h.logger.Debug("Status client disconnected for session %s. Total: %d", c.sessionID, h.GetClientCount())

		case msg := <-h.broadcast:
			h.mutex.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients[msg.sessionID]))
			for conn := range h.clients[msg.sessionID] {
				conns = append(conns, conn)
			}
			h.mutex.RUnlock()

			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(h.writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
					h.logger.Warning("Error sending status to session %s: %v", msg.sessionID, err)
					h.remove(msg.sessionID, conn)
				}
			}

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop ends Run and closes every connection.
func (h *HubService) Stop() {
	close(h.done)
}

func (h *HubService) Register(sessionID string, conn *websocket.Conn) {
	select {
	case h.register <- client{sessionID: sessionID, conn: conn}:
	case <-h.done:
		conn.Close()
	}
}

func (h *HubService) Unregister(sessionID string, conn *websocket.Conn) {
	select {
	case h.unregister <- client{sessionID: sessionID, conn: conn}:
	case <-h.done:
	}
}

// Publish queues an event for a session. Events are dropped when the queue
// is full; status is advisory and the next page load shows the truth.
func (h *HubService) Publish(sessionID string, event dto.StatusEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode status event: %v", err)
		return
	}

	select {
	case h.broadcast <- message{sessionID: sessionID, payload: payload}:
	default:
		h.logger.Warning("Status queue full - dropping %s event for session %s", event.Status, sessionID)
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

func (h *HubService) remove(sessionID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns, ok := h.clients[sessionID]
	if !ok || !conns[conn] {
		return
	}
	delete(conns, conn)
	conn.Close()
	if len(conns) == 0 {
		delete(h.clients, sessionID)
	}
}

func (h *HubService) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for sessionID, conns := range h.clients {
		for conn := range conns {
			conn.Close()
		}
		delete(h.clients, sessionID)
	}
}
