// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"time"

	"github.com/tomtom215/mediasensors/internal/kodi"
	"github.com/tomtom215/mediasensors/internal/sensor"
	"github.com/tomtom215/mediasensors/internal/websocket"
)

const (
	defaultCommandTimeout = 30 * time.Second
	defaultReadyTimeout   = 5 * time.Second
)

// HandlerConfig wires the handler to the running system.
type HandlerConfig struct {
	Registry *sensor.Registry
	Gateway  kodi.Gateway
	Hub      *websocket.Hub

	// CORSOrigins also governs which browser origins may open /ws.
	CORSOrigins []string

	CommandTimeout time.Duration
	ReadyTimeout   time.Duration
}

// Handler serves the sensor API.
type Handler struct {
	registry       *sensor.Registry
	gateway        kodi.Gateway
	hub            *websocket.Hub
	corsOrigins    []string
	commandTimeout time.Duration
	readyTimeout   time.Duration
	startTime      time.Time
}

// NewHandler creates a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = defaultCommandTimeout
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = defaultReadyTimeout
	}
	return &Handler{
		registry:       cfg.Registry,
		gateway:        cfg.Gateway,
		hub:            cfg.Hub,
		corsOrigins:    cfg.CORSOrigins,
		commandTimeout: cfg.CommandTimeout,
		readyTimeout:   cfg.ReadyTimeout,
		startTime:      time.Now(),
	}
}
