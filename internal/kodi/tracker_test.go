// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package kodi

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediasensors/internal/models"
)

// playerGateway answers the three player queries from mutable fields.
type playerGateway struct {
	mu      sync.Mutex
	down    bool
	players string
	speed   int
	item    string
}

func (g *playerGateway) ID() string { return "tracker:8080" }

func (g *playerGateway) set(fn func(g *playerGateway)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g)
}

func (g *playerGateway) Call(_ context.Context, method string, _ any) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.down {
		return nil, fmt.Errorf("%w: connection refused", ErrUnavailable)
	}
	switch method {
	case "Player.GetActivePlayers":
		return json.RawMessage(g.players), nil
	case "Player.GetProperties":
		return json.RawMessage(fmt.Sprintf(`{"speed":%d}`, g.speed)), nil
	case "Player.GetItem":
		return json.RawMessage(g.item), nil
	}
	return nil, &RPCError{Method: method, Code: -32601, Message: "Method not found."}
}

func collect(tr *Tracker) func() []models.LifecycleEvent {
	var mu sync.Mutex
	var events []models.LifecycleEvent
	tr.Subscribe(func(ev models.LifecycleEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})
	return func() []models.LifecycleEvent {
		mu.Lock()
		defer mu.Unlock()
		return append([]models.LifecycleEvent(nil), events...)
	}
}

func TestResolveSnapshot(t *testing.T) {
	gw := &playerGateway{
		players: `[{"playerid":0,"type":"audio"}]`,
		speed:   1,
		item:    `{"item":{"id":42,"type":"song","title":"Blue","file":"/music/blue.flac"}}`,
	}

	snap, err := ResolveSnapshot(context.Background(), gw)
	if err != nil {
		t.Fatalf("ResolveSnapshot() error = %v", err)
	}
	if !snap.Active || snap.PlayerID != 0 || snap.Type != "audio" {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.ItemID == nil || *snap.ItemID != 42 {
		t.Errorf("ItemID = %v, want 42", snap.ItemID)
	}
	if snap.File != "/music/blue.flac" || snap.Title != "Blue" {
		t.Errorf("file/title = %q/%q", snap.File, snap.Title)
	}
	if snap.State() != models.PlayerPlaying {
		t.Errorf("State() = %s, want playing", snap.State())
	}
}

func TestTrackerEmitsOnlyOnChange(t *testing.T) {
	gw := &playerGateway{players: `[]`}
	tr := NewTracker(gw)
	events := collect(tr)
	ctx := context.Background()

	tr.Resolve(ctx) // off -> idle
	tr.Resolve(ctx) // unchanged

	gw.set(func(g *playerGateway) {
		g.players = `[{"playerid":1,"type":"video"}]`
		g.speed = 1
		g.item = `{"item":{"id":7,"type":"movie","title":"Heat","file":"/m/heat.mkv"}}`
	})
	tr.Resolve(ctx) // idle -> playing

	gw.set(func(g *playerGateway) { g.speed = 0 })
	tr.Resolve(ctx) // playing -> paused

	gw.set(func(g *playerGateway) { g.down = true })
	tr.Resolve(ctx) // paused -> off
	tr.Resolve(ctx) // unchanged

	got := events()
	want := []struct{ old, new models.PlayerState }{
		{models.PlayerOff, models.PlayerIdle},
		{models.PlayerIdle, models.PlayerPlaying},
		{models.PlayerPlaying, models.PlayerPaused},
		{models.PlayerPaused, models.PlayerOff},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(got), len(want), got)
	}
	seen := make(map[string]bool)
	for i, w := range want {
		if got[i].OldState != w.old || got[i].NewState != w.new {
			t.Errorf("event %d = %s -> %s, want %s -> %s", i, got[i].OldState, got[i].NewState, w.old, w.new)
		}
		if got[i].ID == "" || seen[got[i].ID] {
			t.Errorf("event %d has empty or duplicate id %q", i, got[i].ID)
		}
		seen[got[i].ID] = true
	}
	if got[1].NewTitle != "Heat" || got[2].OldTitle != "Heat" {
		t.Errorf("titles not carried: %+v", got[1:3])
	}
}

func TestTrackerNotifiesEveryListener(t *testing.T) {
	tr := NewTracker(&playerGateway{players: `[]`})
	first := collect(tr)
	second := collect(tr)

	var late func() []models.LifecycleEvent
	tr.Subscribe(func(models.LifecycleEvent) {
		if late == nil {
			late = collect(tr)
		}
	})

	tr.Resolve(context.Background()) // off -> idle

	if got := first(); len(got) != 1 || got[0].NewState != models.PlayerIdle {
		t.Errorf("first listener got %v, want one idle event", got)
	}
	if got := second(); len(got) != 1 || got[0].ID != first()[0].ID {
		t.Errorf("second listener got %v, want the same event", got)
	}
	if late == nil {
		t.Fatal("subscribing listener never ran")
	}
	if got := late(); len(got) != 0 {
		t.Errorf("listener added during dispatch got %v, want nothing", got)
	}
}

func TestTrackerPowerDownNotification(t *testing.T) {
	gw := &playerGateway{players: `[]`}
	tr := NewTracker(gw)
	events := collect(tr)

	tr.Resolve(context.Background())
	tr.HandleNotification(&models.KodiNotification{Method: models.KodiSystemQuit})

	got := events()
	if len(got) != 2 || got[1].NewState != models.PlayerOff {
		t.Fatalf("events = %v, want idle then off", got)
	}
	state, _, _ := tr.Current()
	if state != models.PlayerOff {
		t.Errorf("Current() = %s, want off", state)
	}
}

func TestTrackerTriggerCoalesces(t *testing.T) {
	tr := NewTracker(&playerGateway{players: `[]`})
	for i := 0; i < 5; i++ {
		tr.Trigger()
	}
	if n := len(tr.trigger); n != 1 {
		t.Errorf("pending triggers = %d, want 1", n)
	}
}
