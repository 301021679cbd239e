// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/mediasensors/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // clients only send pings
	sendBuffer     = 64
)

// clientIDCounter hands out increasing ids so broadcasts visit clients in a
// stable order.
var clientIDCounter atomic.Uint64

// Client is one subscriber to sensor updates. The stream is one-way:
// anything the client sends other than a ping is discarded.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewClient wraps conn. Register it with hub.Join before calling Start.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
}

func (c *Client) ID() uint64 {
	return c.id
}

// Start runs the read and write loops in their own goroutines.
func (c *Client) Start() {
	go c.writeLoop()
	go c.readLoop()
}

// readLoop answers pings and keeps the read deadline alive. It leaves the
// hub when the connection drops.
func (c *Client) readLoop() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	if err := extend(""); err != nil {
		logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket read deadline failed")
		return
	}
	c.conn.SetPongHandler(extend)

	for {
		var in Message
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("websocket closed unexpectedly")
			}
			return
		}
		if in.Type != MessageTypePing {
			continue
		}
		select {
		case c.send <- Message{Type: MessageTypePong}:
		default:
		}
	}
}

// writeLoop drains the send buffer and pings on pingPeriod. A closed send
// channel means the hub dropped the client.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		var err error
		select {
		case msg, open := <-c.send:
			if !open {
				_ = c.write(func() error { return c.conn.WriteMessage(websocket.CloseMessage, []byte{}) })
				return
			}
			err = c.write(func() error { return c.conn.WriteJSON(msg) })
		case <-ticker.C:
			err = c.write(func() error { return c.conn.WriteMessage(websocket.PingMessage, nil) })
		}
		if err != nil {
			logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket write failed")
			return
		}
	}
}

func (c *Client) write(fn func() error) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return fn()
}
