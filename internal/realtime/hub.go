package realtime

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Hub is the websocket implementation of Broadcaster. Slow or gone
// clients are dropped instead of blocking the sender.
type Hub struct {
	upgrader websocket.Upgrader

	mutex   sync.Mutex
	clients map[*websocket.Conn]chan event
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan event),
	}
}

// Handler upgrades an HTTP request to a websocket subscription.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Warn("realtime: websocket upgrade failed")
			return
		}

		send := make(chan event, 16)

		h.mutex.Lock()
		h.clients[conn] = send
		h.mutex.Unlock()

		logrus.WithField("clients", h.clientCount()).Debug("realtime: client connected")

		go h.writeLoop(conn, send)
		go h.readLoop(conn)
	})
}

func (h *Hub) Broadcast(eventName string, payload any) {
	message := event{Event: eventName, Payload: payload}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, send := range h.clients {
		select {
		case send <- message:
		default:
			// Client is not keeping up; disconnect it.
			delete(h.clients, conn)
			close(send)
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, send chan event) {
	defer conn.Close()

	for message := range send {
		if err := conn.WriteJSON(message); err != nil {
			h.remove(conn)
			return
		}
	}
}

// readLoop drains and discards client frames so pings and close frames
// are processed.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			conn.Close()
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
}

func (h *Hub) clientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}
