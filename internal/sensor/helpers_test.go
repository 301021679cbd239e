// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/mediasensors/internal/cache"
	"github.com/tomtom215/mediasensors/internal/fanout"
	"github.com/tomtom215/mediasensors/internal/kodi/kodifake"
	"github.com/tomtom215/mediasensors/internal/models"
	"github.com/tomtom215/mediasensors/internal/normalize"
)

type testImages struct{}

func (testImages) Thumbnail(raw string) string { return "http://kodi/thumb/" + raw }
func (testImages) ArtURL(raw string) string    { return "http://kodi/art/" + raw }

type sinkRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *sinkRecorder) SensorDirty(_ context.Context, snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *sinkRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 15, 9, 26, 535897000, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	gw       *kodifake.Gateway
	sink     *sinkRecorder
	clock    *testClock
	cache    *cache.Cache
	notifier *fanout.Notifier
	deps     Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		gw:       kodifake.New("kodi.test:8080"),
		sink:     &sinkRecorder{},
		clock:    newTestClock(),
		cache:    cache.New(),
		notifier: fanout.New(),
	}
	h.deps = Deps{
		Gateway:    h.gw,
		Normalizer: normalize.New(testImages{}),
		Cache:      h.cache,
		Notifier:   h.notifier,
		Sink:       h.sink,
		Now:        h.clock.Now,
	}
	return h
}

func event(id string, oldState, newState models.PlayerState, oldTitle, newTitle string) models.LifecycleEvent {
	return models.LifecycleEvent{ID: id, OldState: oldState, NewState: newState, OldTitle: oldTitle, NewTitle: newTitle}
}

// deliver runs one event on the calling goroutine.
func deliver(s *Sensor, ev models.LifecycleEvent) {
	s.handle(context.Background(), job{kind: jobEvent, event: ev})
}

// invoke runs one command on the calling goroutine.
func invoke(s *Sensor, name string, args map[string]any) error {
	reply := make(chan error, 1)
	s.handle(context.Background(), job{kind: jobCommand, cmd: Command{Name: name, Args: args}, reply: reply})
	return <-reply
}

func tick(s *Sensor) {
	s.handle(context.Background(), job{kind: jobTick})
}

// playerOn marks the sensor as attached to a running player without
// touching its items.
func playerOn(s *Sensor) {
	s.playerOff = false
}

func itemsOfType(items []normalize.Item, objectType string) int {
	n := 0
	for _, it := range items {
		if it.Type() == objectType {
			n++
		}
	}
	return n
}
