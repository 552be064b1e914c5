package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"rosterhub/internal/app/user"
	"rosterhub/internal/pkg/errs"
	"rosterhub/internal/pkg/logx"
	"rosterhub/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 4096

	// capacity of the outbound queue.
	sendBufferSize = 256
)

// Client is an active WebSocket connection and its optional identity.
type Client struct {
	id string

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// identity resolved at handshake; nil when anonymous.
	identity *user.Identity

	lifecycle *Lifecycle

	// a buffered channel used to queue frames waiting to be written.
	send chan []byte

	// closed once when the connection should shut down.
	closing   chan struct{}
	closeOnce sync.Once
	closeMsg  []byte

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn, identity *user.Identity, lifecycle *Lifecycle) *Client {
	id := randx.ConnectionID()

	ctx := logx.Logger().With().Str("conn_id", id)
	if identity != nil {
		ctx = ctx.Str("user_id", identity.ID)
	}

	return &Client{
		id:        id,
		conn:      conn,
		identity:  identity,
		lifecycle: lifecycle,
		send:      make(chan []byte, sendBufferSize),
		closing:   make(chan struct{}),
		logger:    ctx.Logger(),
	}
}

// ID implements Peer.
func (c *Client) ID() string { return c.id }

// Identity implements Peer.
func (c *Client) Identity() *user.Identity { return c.identity }

// Enqueue implements Peer.
func (c *Client) Enqueue(frame []byte) error {
	select {
	case <-c.closing:
		return ErrPeerClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close implements Peer. The close frame is written by WritePump.
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.logger.Info().Int("close_code", code).Str("reason", reason).Msg("Closing connection.")
		c.closeMsg = websocket.FormatCloseMessage(code, reason)
		close(c.closing)
	})
}

// Run starts both pumps. ReadPump runs in the calling goroutine.
func (c *Client) Run() {
	go c.WritePump()
	c.ReadPump()
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), inbound events, and reports the disconnect when the connection ends.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

// cleanupOnDisconnect stops the write pump and hands the connection to the lifecycle.
func (c *Client) cleanupOnDisconnect() {
	c.Close(websocket.CloseNormalClosure, "")
	c.lifecycle.Disconnect(c)

	if err := c.conn.Close(); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundMessage handles raw frames received from the client.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var inbound Frame
	if err := json.Unmarshal(messageBytes, &inbound); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		c.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch inbound.Event {
	case EventLogout:
		c.logger.Info().Msg("Client requested logout.")
		c.lifecycle.Logout(c)

	default:
		c.logger.Warn().Str("event", inbound.Event).Msg("Client sent unsupported event")
		c.SendError(errs.NewError(errs.ErrInvalidParams))
	}
}

// SendError queues an error frame for this connection only.
func (c *Client) SendError(err error) {
	payload := ErrorPayload{Code: errs.ErrUnknown, Message: fmt.Sprintf("Internal server error: %v", err)}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		payload = ErrorPayload{Code: customErr.Code, Message: customErr.Message}
	}

	frame, encErr := encodeFrame(EventError, payload)
	if encErr != nil {
		c.logger.Error().Err(encErr).Msg("Failed to build error frame")
		return
	}

	if err := c.Enqueue(frame); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to queue error frame")
	}
}

// WritePump writes queued frames and pings to the WebSocket connection.
// It is the only writer of data frames.
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
		case message := <-c.send:
			if !c.writeQueuedMessage(message) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}

		case <-c.closing:
			c.flushQueued()
			c.writeCloseMessage()
			return
		}
	}
}

// writeQueuedMessage writes one frame. Returns false if the WritePump loop should terminate.
func (c *Client) writeQueuedMessage(message []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// flushQueued writes whatever is already queued so that the frames published before the close still arrive.
func (c *Client) flushQueued() {
	for {
		select {
		case message := <-c.send:
			if !c.writeQueuedMessage(message) {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) writeCloseMessage() {
	if err := c.conn.WriteControl(websocket.CloseMessage, c.closeMsg, time.Now().Add(writeWait)); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Debug().Err(err).Msg("Failed to write close message")
	}
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
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
