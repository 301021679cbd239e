// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import "github.com/tomtom215/mediasensors/internal/models"

// Action is what a sensor does in response to a player transition.
type Action int

const (
	// NoOp leaves the sensor untouched.
	NoOp Action = iota
	// RefreshAll re-issues every query and replaces meta and items.
	RefreshAll
	// RefreshMeta re-issues identity/position queries only.
	RefreshMeta
	// Clear purges meta and items without any remote call.
	Clear
)

func (a Action) String() string {
	switch a {
	case NoOp:
		return "noop"
	case RefreshAll:
		return "refresh_all"
	case RefreshMeta:
		return "refresh_meta"
	case Clear:
		return "clear"
	default:
		return "unknown"
	}
}

// Classifier maps a player transition to an Action.
type Classifier func(oldState, newState models.PlayerState, oldTitle, newTitle string) Action

// ClassifyPlaylist is the playlist table. Rules are evaluated in order and
// the first match wins.
func ClassifyPlaylist(oldState, newState models.PlayerState, oldTitle, newTitle string) Action {
	switch {
	case oldState == newState && oldTitle == newTitle:
		return NoOp
	case oldState == newState:
		return RefreshAll
	case oldState.IsOff():
		return RefreshAll
	case newState.IsOff():
		return Clear
	case oldState == models.PlayerIdle && newState == models.PlayerPlaying:
		return RefreshAll
	case oldState == models.PlayerPaused && newState == models.PlayerPlaying,
		oldState == models.PlayerPlaying && newState == models.PlayerPaused:
		return RefreshMeta
	case newState == models.PlayerIdle:
		return RefreshMeta
	default:
		return NoOp
	}
}

// ClassifyRecent drives the recently-added sensors: anything that is not a
// duplicate or a power-down refreshes the library view.
func ClassifyRecent(oldState, newState models.PlayerState, oldTitle, newTitle string) Action {
	switch {
	case oldState == newState && oldTitle == newTitle:
		return NoOp
	case newState.IsOff():
		if oldState.IsOff() {
			return NoOp
		}
		return Clear
	default:
		return RefreshAll
	}
}

// ClassifySearch keeps search results across playback changes. Results are
// dropped when the player goes away and fresh meta is built when it returns.
func ClassifySearch(oldState, newState models.PlayerState, _, _ string) Action {
	switch {
	case newState.IsOff() && !oldState.IsOff():
		return Clear
	case !newState.IsOff() && oldState.IsOff():
		return RefreshMeta
	default:
		return NoOp
	}
}
