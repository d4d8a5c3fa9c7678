package interpreter

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
		logger:  log.With().Str("component", "websocket_hub").Logger(),
	}
}

// Broadcast sends the reading to every connected client. Clients that fail
// to receive it are dropped.
func (h *Hub) Broadcast(fields types.Fields) {
	data, err := json.Marshal(fields)
	if err != nil {
		h.logger.Error().Err(err).Msg("error marshaling reading")
		return
	}

	h.mu.Lock()
	h.latest = data
	clients := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for client, lock := range h.clients {
		clients[client] = lock
	}
	h.mu.Unlock()

	for client, lock := range clients {
		if err := write(client, lock, data); err != nil {
			h.logger.Debug().Err(err).Msg("dropping client")
			h.remove(client)
		}
	}
}

// Latest returns the last broadcast reading as JSON, or nil.
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade error")
		return
	}

	lock := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = lock
	latest := h.latest
	h.mu.Unlock()
	h.logger.Debug().Str("remote", r.RemoteAddr).Msg("client connected")

	if latest != nil {
		if err := write(conn, lock, latest); err != nil {
			h.remove(conn)
			return
		}
	}

	// Reads keep control frames flowing until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*websocket.Conn]*sync.Mutex)
	h.mu.Unlock()

	for client, lock := range clients {
		lock.Lock()
		client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeTimeout))
		lock.Unlock()
		client.Close()
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

func write(conn *websocket.Conn, lock *sync.Mutex, data []byte) error {
	lock.Lock()
	defer lock.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}
