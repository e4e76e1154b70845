package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 16
	readLimit    = 4096
	pongWait     = 60 * time.Second
	pingDeadline = 5 * time.Second
)

// Client is one dashboard socket.
type Client struct {
	device       string
	conn         *websocket.Conn
	send         chan []byte
	writeTimeout time.Duration
	logger       *zap.Logger
}

func newClient(conn *websocket.Conn, device string, writeTimeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		device:       device,
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

func (c *Client) wants(device string) bool {
	return c.device == "" || device == "" || c.device == device
}

// Ping sends a control ping; safe to call alongside the write pump.
func (c *Client) Ping() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(pingDeadline))
}

// readPump drains client frames so pongs and close frames get processed.
// It returns when the peer goes away.
func (c *Client) readPump() {
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.logger.Debug("live socket read closed", zap.String("device", c.device), zap.Error(err))
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.logger.Debug("live socket write failed", zap.String("device", c.device), zap.Error(err))
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
