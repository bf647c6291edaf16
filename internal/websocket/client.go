package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"darkwatch/internal/config"
)

const maxMessageSize = 4096

// Client is a middleman between a websocket connection and the hub.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	pingInterval time.Duration
	pongWait     time.Duration
	writeWait    time.Duration
	logger       *slog.Logger
}

// ServeWS upgrades an HTTP request to a websocket connection and
// registers the client with the hub.
func ServeWS(hub *Hub, cfg config.WebSocketConfig, logger *slog.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			// Same-origin dashboard page only; the page is served by
			// this process so the default host check suffices.
			return true
		},
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed",
				slog.String("error", err.Error()),
				slog.String("remote_addr", r.RemoteAddr))
			return
		}

		client := &Client{
			id:           uuid.New().String(),
			hub:          hub,
			conn:         conn,
			send:         make(chan []byte, 256),
			pingInterval: cfg.PingPeriod,
			pongWait:     cfg.PongWait,
			writeWait:    10 * time.Second,
			logger:       logger.With(slog.String("component", "websocket.client")),
		}
		client.hub.register <- client

		go client.writePump()
		go client.readPump()

		// Greet the new tab so it can confirm the channel is live.
		if data, err := json.Marshal(Message{
			Type:      TypeConnection,
			Timestamp: time.Now(),
		}); err == nil {
			client.send <- data
		}
	}
}

// readPump discards inbound frames; the protocol is server-to-client
// only. It exists to process control messages and detect closure.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("unexpected close",
					slog.String("client_id", c.id),
					slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the websocket connection and
// keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
