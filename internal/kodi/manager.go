// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
manager.go - Kodi integration manager

Owns the player tracker together with its two feeds: the notification
websocket and the fallback poller. Serve blocks until the context is
canceled so the manager can run under the supervisor tree.
*/

package kodi

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/mediasensors/internal/logging"
)

// ManagerConfig selects which feeds drive the tracker.
type ManagerConfig struct {
	Host                 string
	WebSocketPort        int
	SSL                  bool
	NotificationsEnabled bool
	PollInterval         time.Duration
}

// Manager runs the tracker, notification client and poller.
type Manager struct {
	gw      Gateway
	cfg     ManagerConfig
	tracker *Tracker
	ws      *NotificationClient
	poller  *Poller
}

// NewManager wires a tracker to the configured feeds.
func NewManager(gw Gateway, cfg ManagerConfig) *Manager {
	m := &Manager{
		gw:      gw,
		cfg:     cfg,
		tracker: NewTracker(gw),
	}
	if cfg.NotificationsEnabled {
		m.ws = NewNotificationClient(cfg.Host, cfg.WebSocketPort, cfg.SSL)
		m.ws.SetCallbacks(m.tracker.HandleNotification, m.tracker.HandleConnection)
	}
	if cfg.PollInterval > 0 {
		m.poller = NewPoller(m.tracker, cfg.PollInterval)
	}
	return m
}

// Tracker exposes the tracker so sensors can subscribe to lifecycle events.
func (m *Manager) Tracker() *Tracker {
	return m.tracker
}

// Connected reports whether the notification websocket is up.
func (m *Manager) Connected() bool {
	return m.ws != nil && m.ws.IsConnected()
}

// Serve runs until ctx is canceled.
func (m *Manager) Serve(ctx context.Context) error {
	logging.Info().Str("gateway", m.gw.ID()).Msg("[kodi] Starting Kodi integration...")

	if err := Ping(ctx, m.gw); err != nil {
		logging.Info().Err(err).Msg("[kodi] WARNING: Ping failed")
	}

	var wg sync.WaitGroup
	if m.ws != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.ws.Run(ctx)
		}()
	}
	if m.poller != nil {
		m.poller.Start(ctx)
	}

	err := m.tracker.Run(ctx)

	if m.poller != nil {
		m.poller.Stop()
	}
	wg.Wait()
	logging.Info().Msg("[kodi] Kodi integration stopped")
	return err
}

func (m *Manager) String() string {
	return "kodi-manager"
}
