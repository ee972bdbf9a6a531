package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cargo-tracker/internal/domain/gps"
	"cargo-tracker/internal/ingestion"
	"cargo-tracker/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var errSendBufferFull = fmt.Errorf("%w: send buffer full", gps.ErrHandleUnavailable)

// Client is one device connection. It is the tracking.Handle bound to the
// device after it registers.
type Client struct {
	id      string
	conn    *websocket.Conn
	session *ingestion.Session
	onClose func(*Client)

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(conn *websocket.Conn, dispatcher *ingestion.Dispatcher, sendBuffer int, onClose func(*Client)) *Client {
	c := &Client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		onClose: onClose,
	}
	c.session = ingestion.NewSession(dispatcher, c)
	return c
}

func (c *Client) ID() string {
	return c.id
}

// Send queues an outbound frame. It never blocks.
func (c *Client) Send(payload interface{}) error {
	data, err := ingestion.EncodeFrame(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return gps.ErrHandleUnavailable
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump handles frames one at a time, in arrival order.
func (c *Client) readPump() {
	defer func() {
		c.session.Close()
		c.closeSend()
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose(c)
		}
		logger.Debug("GPS channel closed",
			zap.String("client_id", c.id),
			zap.String("device_id", c.session.DeviceID()),
		)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Error("Failed to set read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("Unexpected GPS channel close",
					zap.String("device_id", c.session.DeviceID()),
					zap.Error(err),
				)
			}
			return
		}

		// Any inbound frame counts as liveness for the transport.
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if reply := c.session.HandleFrame(context.Background(), data); reply != nil {
			if err := c.Send(reply); err != nil {
				logger.Warn("Failed to queue reply",
					zap.String("device_id", c.session.DeviceID()),
					zap.Error(err),
				)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("Failed to write GPS frame", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}

// shutdown sends a close frame; the read loop then unwinds normally.
func (c *Client) shutdown() {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(writeWait))
	_ = c.conn.Close()
}
