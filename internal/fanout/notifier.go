// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package fanout tells sibling sensors that a command changed shared
// player state.
//
// Siblings are the registered receivers attached to the same gateway
// identity as the source. Delivery is sequential and best-effort: a failing
// receiver is logged and the remaining ones are still attempted. Receivers
// are expected to only flag themselves for a resync on their own loop, so
// no delivery re-enters the notifier.
package fanout

import (
	"fmt"
	"sync"

	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/metrics"
)

// Receiver is one registered sensor.
type Receiver interface {
	ID() string
	GatewayID() string
	Resync(event string) error
}

// Notifier is a flat registry of receivers.
type Notifier struct {
	mu        sync.RWMutex
	receivers []Receiver
}

// New creates an empty registry.
func New() *Notifier {
	return &Notifier{}
}

// Register adds r. Registering the same id twice replaces the first entry.
func (n *Notifier) Register(r Receiver) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, existing := range n.receivers {
		if existing.ID() == r.ID() {
			n.receivers[i] = r
			return
		}
	}
	n.receivers = append(n.receivers, r)
}

// Unregister removes the receiver with the given id.
func (n *Notifier) Unregister(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, existing := range n.receivers {
		if existing.ID() == id {
			n.receivers = append(n.receivers[:i], n.receivers[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered receivers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.receivers)
}

// Notify delivers event to every sibling of source and returns the number
// of successful deliveries.
func (n *Notifier) Notify(source Receiver, event string) int {
	n.mu.RLock()
	targets := make([]Receiver, 0, len(n.receivers))
	for _, r := range n.receivers {
		if r.ID() != source.ID() && r.GatewayID() == source.GatewayID() {
			targets = append(targets, r)
		}
	}
	n.mu.RUnlock()

	delivered := 0
	for _, r := range targets {
		if err := deliver(r, event); err != nil {
			metrics.FanoutDeliveries.WithLabelValues(event, "error").Inc()
			logging.Warn().Err(err).Str("source", source.ID()).Str("target", r.ID()).Str("event", event).
				Msg("Fan-out delivery failed")
			continue
		}
		metrics.FanoutDeliveries.WithLabelValues(event, "ok").Inc()
		delivered++
	}

	logging.Debug().Str("source", source.ID()).Str("event", event).Int("delivered", delivered).
		Int("targets", len(targets)).Msg("Fan-out complete")
	return delivered
}

func deliver(r Receiver, event string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("receiver panicked: %v", rec)
		}
	}()
	return r.Resync(event)
}
