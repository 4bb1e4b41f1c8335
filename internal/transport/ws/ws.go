// Package ws pushes domain events to connected browsers so open prompt
// lists and editors refresh without polling.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mliu/prompthub/internal/domain/event"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans domain events out to websocket clients. A client may narrow its
// feed with a ?channel= query parameter; without one it receives everything.
type Hub struct {
	clients map[*websocket.Conn]event.Channel
	mu      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]event.Channel),
	}
}

func (h *Hub) Register(rg *gin.RouterGroup) {
	rg.GET("", h.handleWS)
}

func (h *Hub) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = event.Channel(c.Query("channel"))
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Clients only listen; reads just detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast delivers e to every client subscribed to its channel. Clients
// whose writes fail are dropped; their read loop cleans up the connection.
func (h *Hub) Broadcast(e event.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("websocket broadcast marshal failed", "error", err)
		return
	}
	ch := event.ChannelFor(e.Type)

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, want := range h.clients {
		if want != "" && want != ch {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Error("websocket write failed", "error", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
