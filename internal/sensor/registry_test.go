// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"context"
	"testing"
	"time"
)

func TestRegistryOrderAndLookup(t *testing.T) {
	h := newHarness(t)
	reg := NewRegistry()

	playlist := NewPlaylist("", h.deps)
	search := NewSearch("", h.deps, SearchOptions{})
	for _, s := range []*Sensor{playlist, search} {
		if err := reg.Add(s); err != nil {
			t.Fatalf("Add(%s): %v", s.ID(), err)
		}
	}
	if err := reg.Add(NewPlaylist("", h.deps)); err == nil {
		t.Error("expected duplicate id to be rejected")
	}

	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}
	if got, ok := reg.Get(SearchID); !ok || got != search {
		t.Errorf("Get(%q) = %v, %v", SearchID, got, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}

	infos := reg.Infos()
	if infos[0].ID != PlaylistPrefix || infos[1].ID != SearchID {
		t.Errorf("Infos order = %v", infos)
	}
	for _, info := range infos {
		if info.State != StateOffline {
			t.Errorf("%s initial state = %s, want OFFLINE", info.ID, info.State)
		}
	}
}

func TestRegistryDeliverReachesEverySensor(t *testing.T) {
	h := newHarness(t)
	h.gw.Respond("Player.GetActivePlayers", []any{})
	h.gw.Respond("VideoLibrary.GetRecentlyAddedMovies", map[string]any{"movies": []any{}})

	reg := NewRegistry()
	playlist := NewPlaylist("", h.deps)
	movies := NewRecentMovies("", h.deps, RecentOptions{})
	_ = reg.Add(playlist)
	_ = reg.Add(movies)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for _, s := range reg.All() {
		go func(s *Sensor) { _ = s.Run(ctx) }(s)
	}

	reg.Deliver(event("ev-1", off, idle, "", ""))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if playlist.CurrentState() == StateEmpty && movies.CurrentState() == StateEmpty {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("states after delivery: playlist=%s movies=%s, want EMPTY", playlist.CurrentState(), movies.CurrentState())
}
