/*
Package chat contains the presence engine: the session registry, the event router,
the broadcast emitter and the hub that serializes every connection's events.

This file defines the Client struct, the websocket-backed Peer. It owns the read and
write loops for one connection and forwards decoded events to the Hub.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tealtint-nt/WebRTCSample/internal/pkg/logx"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192

	// DefaultSendBuffer is the outbound queue length used when none is configured.
	DefaultSendBuffer = 256
)

// Client is an active websocket connection.
type Client struct {
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// server-assigned connection identifier.
	id string

	// queued outbound frames.
	send chan []byte

	// quit is closed by Close; WritePump then sends a close frame and exits.
	quit      chan struct{}
	closeOnce sync.Once

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient wraps wsConn with a fresh connection id. A non-positive sendBuffer selects DefaultSendBuffer.
func NewClient(hub *Hub, wsConn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}

	id := randx.ConnectionID()

	return &Client{
		hub:    hub,
		conn:   wsConn,
		id:     id,
		send:   make(chan []byte, sendBuffer),
		quit:   make(chan struct{}),
		logger: logx.Logger().With().Str("conn_id", id).Logger(),
	}
}

// ID implements Peer.
func (c *Client) ID() string {
	return c.id
}

// Enqueue implements Peer. It never blocks.
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case <-c.quit:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close implements Peer. WritePump performs the actual socket close.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
	})
}

// Serve registers the client with the hub, starts the writer and blocks reading
// until the connection ends.
func (c *Client) Serve() {
	if !c.hub.Connect(c) {
		c.logger.Warn().Msg("Hub is stopped. Rejecting connection.")
		c.Close()
		c.closeConn()
		return
	}

	go c.WritePump()
	c.ReadPump()
}

// ReadPump reads frames from the websocket and hands each event to the hub.
// The hub is told about the disconnect when reading stops.
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

// cleanupOnDisconnect reports the disconnect and releases the socket.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Debug().Msg("Client connection cleanup starting.")

	c.hub.Disconnect(c.id)
	c.Close()
	c.closeConn()
}

// processInboundMessage decodes one frame. Frames that are not a valid envelope are dropped.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var inbound Envelope
	if err := json.Unmarshal(messageBytes, &inbound); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		return
	}

	if inbound.Event == "" {
		c.logger.Warn().Msg("Client sent frame without event name")
		return
	}

	c.hub.Deliver(c.id, inbound.Event, inbound.Data)
}

// WritePump writes queued frames and periodic pings until the client is closed
// or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message := <-c.send:
			if !c.write(websocket.TextMessage, message) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.quit:
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// write sends one websocket message. It reports false if the WritePump loop should stop.
func (c *Client) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("Error writing message")
		return false
	}

	return true
}

func (c *Client) closeConn() {
	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}
