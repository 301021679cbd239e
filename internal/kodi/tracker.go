// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package kodi

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/metrics"
	"github.com/tomtom215/mediasensors/internal/models"
)

// ActivePlayers returns Player.GetActivePlayers.
func ActivePlayers(ctx context.Context, gw Gateway) ([]models.ActivePlayer, error) {
	raw, err := gw.Call(ctx, "Player.GetActivePlayers", nil)
	if err != nil {
		return nil, err
	}
	var players []models.ActivePlayer
	if err := json.Unmarshal(raw, &players); err != nil {
		return nil, fmt.Errorf("decode active players: %w", err)
	}
	return players, nil
}

// ResolveSnapshot reads the first active player's speed and playing item.
// With no active player the snapshot is inactive and the error is nil.
func ResolveSnapshot(ctx context.Context, gw Gateway) (models.PlayerSnapshot, error) {
	players, err := ActivePlayers(ctx, gw)
	if err != nil {
		return models.PlayerSnapshot{}, err
	}
	if len(players) == 0 {
		return models.PlayerSnapshot{}, nil
	}

	snap := models.PlayerSnapshot{
		Active:   true,
		PlayerID: players[0].PlayerID,
		Type:     players[0].Type,
		Speed:    1,
	}

	raw, err := gw.Call(ctx, "Player.GetProperties", map[string]any{
		"playerid":   snap.PlayerID,
		"properties": []string{"speed"},
	})
	if err != nil {
		return snap, err
	}
	var props struct {
		Speed int `json:"speed"`
	}
	if err := json.Unmarshal(raw, &props); err != nil {
		return snap, fmt.Errorf("decode player properties: %w", err)
	}
	snap.Speed = props.Speed

	raw, err = gw.Call(ctx, "Player.GetItem", map[string]any{
		"playerid":   snap.PlayerID,
		"properties": []string{"title", "file"},
	})
	if err != nil {
		return snap, err
	}
	var item struct {
		Item struct {
			ID    *int   `json:"id"`
			Title string `json:"title"`
			Label string `json:"label"`
			File  string `json:"file"`
		} `json:"item"`
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return snap, fmt.Errorf("decode player item: %w", err)
	}
	snap.ItemID = item.Item.ID
	snap.File = item.Item.File
	snap.Title = item.Item.Title
	if snap.Title == "" {
		snap.Title = item.Item.Label
	}
	return snap, nil
}

// Tracker turns gateway observations into LifecycleEvents. Resolution
// requests are coalesced: any number of Trigger calls while a resolve is
// pending cause one more resolve.
type Tracker struct {
	gw  Gateway
	now func() time.Time

	mu        sync.Mutex
	state     models.PlayerState
	title     string
	snapshot  models.PlayerSnapshot
	listeners []func(models.LifecycleEvent)

	trigger chan struct{}
}

// NewTracker creates a tracker that starts in the off state.
func NewTracker(gw Gateway) *Tracker {
	return &Tracker{
		gw:      gw,
		now:     time.Now,
		state:   models.PlayerOff,
		trigger: make(chan struct{}, 1),
	}
}

// Subscribe registers fn for every emitted event. Listeners are called
// sequentially on the tracker goroutine.
func (t *Tracker) Subscribe(fn func(models.LifecycleEvent)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Current returns the last observed state, title and snapshot.
func (t *Tracker) Current() (models.PlayerState, string, models.PlayerSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.title, t.snapshot
}

// Trigger requests a resolve without blocking.
func (t *Tracker) Trigger() {
	select {
	case t.trigger <- struct{}{}:
	default:
	}
}

// HandleNotification reacts to a Kodi notification. Power-down
// notifications switch to off immediately since the host stops answering.
func (t *Tracker) HandleNotification(n *models.KodiNotification) {
	if n.IsPowerDown() {
		t.observe(models.PlayerOff, "", models.PlayerSnapshot{})
		return
	}
	t.Trigger()
}

// HandleConnection is the websocket connection-change callback.
func (t *Tracker) HandleConnection(connected bool) {
	if connected {
		t.Trigger()
		return
	}
	t.observe(models.PlayerOff, "", models.PlayerSnapshot{})
}

// Run resolves on every trigger until ctx is canceled.
func (t *Tracker) Run(ctx context.Context) error {
	t.Resolve(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.trigger:
			t.Resolve(ctx)
		}
	}
}

// Resolve queries the gateway once and emits an event when the
// (state, title) pair changed.
func (t *Tracker) Resolve(ctx context.Context) {
	snap, err := ResolveSnapshot(ctx, t.gw)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if IsApplicationError(err) {
			logging.Debug().Err(err).Msg("[kodi-tracker] Player query rejected")
			return
		}
		logging.Debug().Err(err).Msg("[kodi-tracker] Host unreachable")
		t.observe(models.PlayerOff, "", models.PlayerSnapshot{})
		return
	}
	t.observe(snap.State(), snap.Title, snap)
}

func (t *Tracker) observe(state models.PlayerState, title string, snap models.PlayerSnapshot) {
	t.mu.Lock()
	t.snapshot = snap
	if state == t.state && title == t.title {
		t.mu.Unlock()
		return
	}
	ev := models.LifecycleEvent{
		ID:       uuid.NewString(),
		OldState: t.state,
		NewState: state,
		OldTitle: t.title,
		NewTitle: title,
		At:       t.now(),
	}
	t.state = state
	t.title = title
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()

	metrics.KodiLifecycleEvents.WithLabelValues(string(state)).Inc()
	logging.Debug().Str("event", ev.String()).Msg("[kodi-tracker] Player state changed")

	for _, fn := range listeners {
		fn(ev)
	}
}
