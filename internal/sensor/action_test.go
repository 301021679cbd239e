// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"testing"

	"github.com/tomtom215/mediasensors/internal/models"
)

const (
	off     = models.PlayerOff
	idle    = models.PlayerIdle
	playing = models.PlayerPlaying
	paused  = models.PlayerPaused
)

func TestClassifyPlaylist(t *testing.T) {
	tests := []struct {
		name               string
		oldState, newState models.PlayerState
		oldTitle, newTitle string
		want               Action
	}{
		{"same state same title", playing, playing, "a", "a", NoOp},
		{"off to off", off, off, "", "", NoOp},
		{"same state new title", playing, playing, "a", "b", RefreshAll},
		{"off to idle", off, idle, "", "", RefreshAll},
		{"off to playing", off, playing, "", "a", RefreshAll},
		{"playing to off", playing, off, "a", "", Clear},
		{"idle to off", idle, off, "", "", Clear},
		{"paused to off", paused, off, "a", "", Clear},
		{"idle to playing", idle, playing, "", "a", RefreshAll},
		{"paused to playing", paused, playing, "a", "a", RefreshMeta},
		{"playing to paused", playing, paused, "a", "a", RefreshMeta},
		{"playing to idle", playing, idle, "a", "", RefreshMeta},
		{"paused to idle", paused, idle, "a", "", RefreshMeta},
		{"idle to paused", idle, paused, "", "a", NoOp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyPlaylist(tt.oldState, tt.newState, tt.oldTitle, tt.newTitle)
			if got != tt.want {
				t.Errorf("ClassifyPlaylist(%s, %s) = %s, want %s", tt.oldState, tt.newState, got, tt.want)
			}
		})
	}
}

func TestClassifiersNoOpOnIdenticalTransitions(t *testing.T) {
	classifiers := map[string]Classifier{
		"playlist": ClassifyPlaylist,
		"recent":   ClassifyRecent,
		"search":   ClassifySearch,
	}
	for name, classify := range classifiers {
		for _, state := range []models.PlayerState{off, idle, playing, paused} {
			if got := classify(state, state, "title", "title"); got != NoOp {
				t.Errorf("%s classifier on %s -> %s = %s, want noop", name, state, state, got)
			}
		}
	}
}

func TestClassifiersClearOnPowerDown(t *testing.T) {
	classifiers := map[string]Classifier{
		"playlist": ClassifyPlaylist,
		"recent":   ClassifyRecent,
		"search":   ClassifySearch,
	}
	for name, classify := range classifiers {
		for _, state := range []models.PlayerState{idle, playing, paused} {
			if got := classify(state, off, "title", ""); got != Clear {
				t.Errorf("%s classifier on %s -> off = %s, want clear", name, state, got)
			}
		}
	}
}

func TestClassifyRecent(t *testing.T) {
	tests := []struct {
		oldState, newState models.PlayerState
		oldTitle, newTitle string
		want               Action
	}{
		{off, idle, "", "", RefreshAll},
		{idle, playing, "", "a", RefreshAll},
		{playing, paused, "a", "a", RefreshAll},
		{playing, playing, "a", "b", RefreshAll},
		{playing, off, "a", "", Clear},
		{off, off, "", "x", NoOp},
	}
	for _, tt := range tests {
		if got := ClassifyRecent(tt.oldState, tt.newState, tt.oldTitle, tt.newTitle); got != tt.want {
			t.Errorf("ClassifyRecent(%s, %s, %q, %q) = %s, want %s", tt.oldState, tt.newState, tt.oldTitle, tt.newTitle, got, tt.want)
		}
	}
}

func TestClassifySearch(t *testing.T) {
	tests := []struct {
		oldState, newState models.PlayerState
		want               Action
	}{
		{off, idle, RefreshMeta},
		{off, playing, RefreshMeta},
		{playing, off, Clear},
		{idle, playing, NoOp},
		{playing, paused, NoOp},
		{off, off, NoOp},
	}
	for _, tt := range tests {
		if got := ClassifySearch(tt.oldState, tt.newState, "a", "b"); got != tt.want {
			t.Errorf("ClassifySearch(%s, %s) = %s, want %s", tt.oldState, tt.newState, got, tt.want)
		}
	}
}

func TestActionString(t *testing.T) {
	want := map[Action]string{NoOp: "noop", RefreshAll: "refresh_all", RefreshMeta: "refresh_meta", Clear: "clear", Action(42): "unknown"}
	for a, s := range want {
		if a.String() != s {
			t.Errorf("Action(%d).String() = %q, want %q", int(a), a.String(), s)
		}
	}
}
