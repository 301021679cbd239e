// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package events

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
)

// Broadcaster pushes raw JSON payloads to connected clients.
type Broadcaster interface {
	BroadcastRaw(data []byte)
}

// Forwarder relays sensor updates from the bus to a Broadcaster. It always
// acks: a failed broadcast must not stall the publishing sensor.
type Forwarder struct {
	bus    *Bus
	out    Broadcaster
	logger watermill.LoggerAdapter

	forwarded atomic.Int64
}

// NewForwarder creates a forwarder from bus to out.
func NewForwarder(bus *Bus, out Broadcaster, logger watermill.LoggerAdapter) (*Forwarder, error) {
	if bus == nil {
		return nil, fmt.Errorf("bus required")
	}
	if out == nil {
		return nil, fmt.Errorf("broadcaster required")
	}
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Forwarder{bus: bus, out: out, logger: logger}, nil
}

// Serve forwards until ctx is canceled or the bus closes.
func (f *Forwarder) Serve(ctx context.Context) error {
	msgs, err := f.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", f.bus.Topic(), err)
	}
	f.logger.Info("Forwarder started", watermill.LogFields{"topic": f.bus.Topic()})

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Forwarder stopped", nil)
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrBusClosed
			}
			f.out.BroadcastRaw(msg.Payload)
			msg.Ack()
			f.forwarded.Add(1)
		}
	}
}

// Forwarded returns the number of messages relayed so far.
func (f *Forwarder) Forwarded() int64 {
	return f.forwarded.Load()
}

// String implements fmt.Stringer for supervisor logging.
func (f *Forwarder) String() string {
	return "event-forwarder"
}
