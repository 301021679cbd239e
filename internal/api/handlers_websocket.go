// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/websocket"
)

func (h *Handler) upgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkWebSocketOrigin,
	}
}

// checkWebSocketOrigin accepts requests without an Origin header (non-browser
// clients), same-host origins, and origins listed in the CORS config.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	for _, allowed := range h.corsOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().Str("origin", origin).Msg("WebSocket origin rejected")
	return false
}

// WebSocket upgrades the connection and registers it with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("websocket hub not running")
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	if !h.hub.Join(client) {
		_ = conn.Close()
		return
	}
	client.Start()
}
