// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package models

import "github.com/goccy/go-json"

// ============================================================================
// Kodi WebSocket Notification Models
// ============================================================================
// Kodi pushes JSON-RPC notifications (requests without an id) on its TCP/websocket
// endpoint, by default ws://{host}:9090/jsonrpc.

// Notification method names the tracker reacts to.
const (
	KodiOnPlay      = "Player.OnPlay"
	KodiOnResume    = "Player.OnResume"
	KodiOnAVStart   = "Player.OnAVStart"
	KodiOnPause     = "Player.OnPause"
	KodiOnStop      = "Player.OnStop"
	KodiOnSpeed     = "Player.OnSpeedChanged"
	KodiSystemQuit  = "System.OnQuit"
	KodiSystemSleep = "System.OnSleep"
	KodiSystemWake  = "System.OnWake"
	KodiSystemReset = "System.OnRestart"
)

// KodiNotification is a JSON-RPC notification frame.
type KodiNotification struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  KodiNotificationParams `json:"params"`
}

// KodiNotificationParams carries the sender and a method-specific payload.
type KodiNotificationParams struct {
	Sender string          `json:"sender"`
	Data   json.RawMessage `json:"data"`
}

// IsPowerDown reports whether the notification means the player is going away.
func (n *KodiNotification) IsPowerDown() bool {
	return n.Method == KodiSystemQuit || n.Method == KodiSystemSleep || n.Method == KodiSystemReset
}
