package ws

import (
	"net/http"
	"sync"

	"cargo-tracker/internal/ingestion"
	"cargo-tracker/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultSendBuffer = 64

// Handler upgrades /gps-ws requests into device sessions.
type Handler struct {
	dispatcher *ingestion.Dispatcher
	upgrader   websocket.Upgrader
	sendBuffer int

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewHandler(dispatcher *ingestion.Dispatcher, sendBuffer int) *Handler {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Handler{
		dispatcher: dispatcher,
		sendBuffer: sendBuffer,
		clients:    make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Trackers are not browsers and send no meaningful Origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("GPS channel upgrade failed",
			zap.String("remote_addr", c.ClientIP()),
			zap.Error(err),
		)
		return
	}

	client := newClient(conn, h.dispatcher, h.sendBuffer, h.remove)

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	logger.Debug("GPS channel opened",
		zap.String("client_id", client.ID()),
		zap.String("remote_addr", c.ClientIP()),
	)

	client.start()
}

func (h *Handler) remove(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ConnectionCount returns the number of open channels, registered or not.
func (h *Handler) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown closes every open channel.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.shutdown()
	}
	logger.Info("GPS channels closed", zap.Int("count", len(clients)))
}
