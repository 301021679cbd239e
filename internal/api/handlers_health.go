// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/mediasensors/internal/kodi"
	"github.com/tomtom215/mediasensors/internal/logging"
)

// HealthLive always answers 200 while the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 200 when Kodi responds to JSONRPC.Ping and 503
// otherwise. The ping goes through the circuit breaker, so an open breaker
// reports not ready without touching the network.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	kodiConnected := false
	if h.gateway != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
		err := kodi.Ping(ctx, h.gateway)
		cancel()
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Readiness ping failed")
		}
		kodiConnected = err == nil
	}

	data := map[string]interface{}{
		"kodi_connected": kodiConnected,
		"sensors":        h.sensorCount(),
		"ws_clients":     h.clientCount(),
		"uptime":         time.Since(h.startTime).Seconds(),
	}

	rw := NewResponseWriter(w, r)
	if !kodiConnected {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "kodi is not reachable", data)
		return
	}
	rw.Success(data)
}

func (h *Handler) sensorCount() int {
	if h.registry == nil {
		return 0
	}
	return h.registry.Len()
}

func (h *Handler) clientCount() int {
	if h.hub == nil {
		return 0
	}
	return h.hub.GetClientCount()
}
