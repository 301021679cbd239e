// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
notifications.go - Kodi notification WebSocket client

Kodi pushes JSON-RPC notifications (Player.OnPlay, Player.OnStop,
System.OnQuit, ...) on ws://{host}:{tcp_port}/jsonrpc. The client keeps one
connection open, reconnects with exponential backoff and hands every
notification to a callback. Frames carrying an id are answers to our own
keep-alive pings and are dropped.
*/

package kodi

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/metrics"
	"github.com/tomtom215/mediasensors/internal/models"
)

const (
	wsReadTimeout     = 60 * time.Second
	wsPingInterval    = 30 * time.Second
	wsMinReconnect    = 1 * time.Second
	wsMaxReconnect    = 32 * time.Second
	wsHandshakeExpiry = 10 * time.Second
)

// NotificationClient receives Kodi notifications over a websocket.
type NotificationClient struct {
	wsURL string

	conn   *websocket.Conn
	connMu sync.Mutex

	connected atomic.Bool

	callbackMu     sync.RWMutex
	onNotification func(*models.KodiNotification)
	onConnection   func(connected bool)

	readTimeout  time.Duration
	pingInterval time.Duration
	minBackoff   time.Duration
}

// NewNotificationClient targets ws(s)://host:port/jsonrpc.
func NewNotificationClient(host string, port int, ssl bool) *NotificationClient {
	scheme := "ws"
	if ssl {
		scheme = "wss"
	}
	return &NotificationClient{
		wsURL:        fmt.Sprintf("%s://%s/jsonrpc", scheme, net.JoinHostPort(host, strconv.Itoa(port))),
		readTimeout:  wsReadTimeout,
		pingInterval: wsPingInterval,
		minBackoff:   wsMinReconnect,
	}
}

// SetCallbacks registers the notification and connection-change handlers.
// Both run on the client's read goroutine and must not block for long.
func (c *NotificationClient) SetCallbacks(onNotification func(*models.KodiNotification), onConnection func(bool)) {
	c.callbackMu.Lock()
	defer c.callbackMu.Unlock()
	c.onNotification = onNotification
	c.onConnection = onConnection
}

// IsConnected reports whether a websocket session is currently open.
func (c *NotificationClient) IsConnected() bool {
	return c.connected.Load()
}

// Run connects and reads until ctx is canceled, reconnecting on failure.
func (c *NotificationClient) Run(ctx context.Context) error {
	delay := c.minBackoff
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logging.Debug().Err(err).Dur("delay", delay).Msg("[kodi-ws] Connection lost, reconnecting")
		}
		metrics.KodiWebSocketReconnects.Inc()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > wsMaxReconnect {
			delay = wsMaxReconnect
		}
		if err == nil {
			delay = c.minBackoff
		}
	}
}

// session runs one connection to completion. A nil return means the
// connection was established and later closed.
func (c *NotificationClient) session(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout:  wsHandshakeExpiry,
		EnableCompression: true,
	}
	conn, resp, err := dialer.DialContext(ctx, c.wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.setConnected(true)
	logging.Info().Str("url", c.wsURL).Msg("[kodi-ws] Connected")

	sessionCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.pingLoop(sessionCtx)
	}()

	// Unblock ReadMessage on shutdown.
	go func() {
		<-sessionCtx.Done()
		c.closeConnection()
	}()

	c.readLoop(ctx, conn)

	cancel()
	wg.Wait()
	c.setConnected(false)
	return nil
}

func (c *NotificationClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info().Err(err).Msg("[kodi-ws] Read error")
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *NotificationClient) handleMessage(data []byte) {
	var frame struct {
		models.KodiNotification
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		logging.Debug().Err(err).Msg("[kodi-ws] Failed to parse frame")
		return
	}
	if len(frame.ID) > 0 || frame.Method == "" {
		return
	}

	metrics.KodiNotifications.WithLabelValues(frame.Method).Inc()

	c.callbackMu.RLock()
	cb := c.onNotification
	c.callbackMu.RUnlock()
	if cb != nil {
		n := frame.KodiNotification
		cb(&n)
	}
}

func (c *NotificationClient) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			var err error
			if conn != nil {
				err = conn.WriteJSON(map[string]string{"jsonrpc": "2.0", "method": "JSONRPC.Ping", "id": "keepalive"})
			}
			c.connMu.Unlock()
			if err != nil {
				logging.Info().Err(err).Msg("[kodi-ws] Keep-alive failed")
				c.closeConnection()
				return
			}
		}
	}
}

func (c *NotificationClient) closeConnection() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return
	}
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	_ = c.conn.Close()
	c.conn = nil
}

func (c *NotificationClient) setConnected(v bool) {
	if c.connected.Swap(v) == v {
		return
	}
	c.callbackMu.RLock()
	cb := c.onConnection
	c.callbackMu.RUnlock()
	if cb != nil {
		cb(v)
	}
}
