// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
poller.go - Player state poller

Backup mechanism for hosts whose websocket port is closed or for
notifications lost during a reconnect. Every interval it asks the tracker to
resolve the player state; the tracker only emits when something changed.
*/

package kodi

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/mediasensors/internal/logging"
)

// MinPollInterval is the lowest accepted poll interval.
const MinPollInterval = time.Second

// Poller periodically triggers a tracker resolve.
type Poller struct {
	tracker  *Tracker
	interval time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPoller creates a poller. Intervals below MinPollInterval are raised.
func NewPoller(tracker *Tracker, interval time.Duration) *Poller {
	if interval < MinPollInterval {
		interval = MinPollInterval
	}
	return &Poller{tracker: tracker, interval: interval}
}

// Start launches the poll loop. Calling Start twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stopChan = make(chan struct{})

	logging.Info().Dur("interval", p.interval).Msg("[kodi-poller] Starting player poller")

	p.wg.Add(1)
	go p.pollLoop(ctx, p.stopChan)
}

// Stop ends the poll loop and waits for it.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
	logging.Info().Msg("[kodi-poller] Player poller stopped")
}

func (p *Poller) pollLoop(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			p.tracker.Trigger()
		}
	}
}
