// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package models

import (
	"fmt"
	"time"
)

// PlayerState is the coarse playback state of the remote player as seen by
// the sensors.
type PlayerState string

const (
	PlayerOff     PlayerState = "off"
	PlayerIdle    PlayerState = "idle"
	PlayerPlaying PlayerState = "playing"
	PlayerPaused  PlayerState = "paused"
)

// IsOff reports whether the player is unreachable or shut down.
func (s PlayerState) IsOff() bool {
	return s == PlayerOff || s == ""
}

// LifecycleEvent is one observed player transition. Delivery is
// at-least-once and may be reordered; consumers must tolerate duplicates.
type LifecycleEvent struct {
	ID       string      `json:"id"`
	OldState PlayerState `json:"old_state"`
	NewState PlayerState `json:"new_state"`
	OldTitle string      `json:"old_title"`
	NewTitle string      `json:"new_title"`
	At       time.Time   `json:"at"`
}

func (e LifecycleEvent) String() string {
	return fmt.Sprintf("%s [%s -> %s]", e.ID, e.OldState, e.NewState)
}

// ActivePlayer is one entry of Player.GetActivePlayers.
type ActivePlayer struct {
	PlayerID int    `json:"playerid"`
	Type     string `json:"type"` // "audio", "video", "picture"
}

// PlayerSnapshot is derived on demand from the gateway and never cached
// beyond one synchronisation pass.
type PlayerSnapshot struct {
	Active   bool
	PlayerID int
	Type     string
	ItemID   *int
	File     string
	Title    string
	Speed    int
}

// State maps a snapshot to the player state used by the classifier.
func (s PlayerSnapshot) State() PlayerState {
	switch {
	case !s.Active:
		return PlayerIdle
	case s.Speed == 0:
		return PlayerPaused
	default:
		return PlayerPlaying
	}
}
