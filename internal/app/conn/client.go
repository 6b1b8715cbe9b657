/*
Package conn holds the live socket handles of a service instance.

Client wraps a gorilla WebSocket connection with a buffered send queue and the
read/write pumps. Registry maps participant ids to their socket and fans frames
out to room or session occupants.
*/
package conn

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"voxpair/internal/pkg/logx"
)

const (
	// timeout for writing one frame to the connection.
	writeWait = 10 * time.Second

	// time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// period between pings; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maximum size of an inbound frame; speech frames carry base64 audio.
	maxMessageSize = 4 << 20

	// number of outbound frames buffered per connection.
	sendBuffer = 256
)

// ErrSendQueueFull is returned when a frame is dropped because the peer is not reading.
var ErrSendQueueFull = errors.New("client send queue full")

// ErrClosed is returned when sending to a closed socket.
var ErrClosed = errors.New("client closed")

// Socket is the handle the registry stores for a participant.
type Socket interface {
	// ID identifies the physical connection, not the participant.
	ID() string

	// Send queues a serialized frame without blocking.
	Send(data []byte) error

	// Close stops future sends and closes the underlying transport.
	Close() error
}

// Client is a Socket backed by a gorilla WebSocket connection.
type Client struct {
	id   string
	conn *websocket.Conn

	// send queues frames for WritePump.
	send chan []byte

	mu     sync.Mutex
	closed bool

	logger zerolog.Logger
}

// NewClient wraps wsConn. The caller starts WritePump in its own goroutine and
// then blocks in ReadPump.
func NewClient(wsConn *websocket.Conn, server string) *Client {
	id := uuid.New().String()

	return &Client{
		id:   id,
		conn: wsConn,
		send: make(chan []byte, sendBuffer),
		logger: logx.Logger().With().
			Str("component", "conn").
			Str("server", server).
			Str("conn_id", id).
			Logger(),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// Logger returns the connection scoped logger.
func (c *Client) Logger() *zerolog.Logger {
	return &c.logger
}

// Send queues data for delivery. Delivery is best-effort: a full queue drops the frame.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping message")
		return ErrSendQueueFull
	}
}

// Close stops accepting frames; WritePump drains the queue, sends a close
// frame and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)

	return nil
}

// ReadPump reads frames until the connection fails and hands each one to
// handle. handle runs to completion before the next frame is read.
func (c *Client) ReadPump(handle func(data []byte)) {
	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.logger.Warn().Int("message_type", messageType).Msg("Ignoring non-text frame")
			continue
		}

		handle(data)
	}
}

// WritePump writes queued frames and periodic pings until the queue is closed
// or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage returns false when WritePump must stop.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage returns false when WritePump must stop.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
