// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/mediasensors/internal/metrics"
	"github.com/tomtom215/mediasensors/internal/sensor"
)

// TopicSensorUpdated carries one message per dirty sensor pass.
const TopicSensorUpdated = "sensors.updated"

// Message metadata keys.
const (
	MetadataSensorID = "sensor_id"
	MetadataKind     = "kind"
	MetadataState    = "state"
)

// ErrBusClosed is returned when publishing or subscribing after Close.
var ErrBusClosed = errors.New("event bus closed")

// BusConfig configures the in-process bus.
type BusConfig struct {
	// Topic defaults to TopicSensorUpdated.
	Topic string

	// OutputBuffer is the per-subscriber channel buffer.
	OutputBuffer int64
}

// DefaultBusConfig returns production defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		Topic:        TopicSensorUpdated,
		OutputBuffer: 256,
	}
}

// Bus turns sensor snapshots into watermill messages. Every message goes to
// the in-process channel; an external publisher, when attached, receives a
// copy as well. Publishing waits for in-process subscribers to ack so that
// updates of one sensor reach consumers in the order they were produced.
type Bus struct {
	topic  string
	local  *gochannel.GoChannel
	logger watermill.LoggerAdapter

	mu       sync.RWMutex
	external message.Publisher
	closed   bool
}

var _ sensor.DirtySink = (*Bus)(nil)

// NewBus creates the in-process bus.
func NewBus(cfg BusConfig, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg.Topic == "" {
		cfg.Topic = TopicSensorUpdated
	}
	return &Bus{
		topic: cfg.Topic,
		local: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            cfg.OutputBuffer,
			BlockPublishUntilSubscriberAck: true,
		}, logger),
		logger: logger,
	}
}

// Topic returns the topic messages are published on.
func (b *Bus) Topic() string {
	return b.topic
}

// AttachExternal mirrors every message to p. Bus.Close closes p.
func (b *Bus) AttachExternal(p message.Publisher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.external = p
}

// SensorDirty publishes snap. Failures are logged and counted; they never
// reach the sensor.
func (b *Bus) SensorDirty(_ context.Context, snap sensor.Snapshot) {
	msg, err := NewSensorMessage(snap)
	if err != nil {
		b.logger.Error("encode sensor update", err, watermill.LogFields{"sensor": snap.ID})
		metrics.EventsPublished.WithLabelValues("local", "error").Inc()
		return
	}
	if err := b.Publish(msg); err != nil {
		b.logger.Error("publish sensor update", err, watermill.LogFields{"sensor": snap.ID})
	}
}

// Publish sends msg to the in-process channel and the external publisher.
func (b *Bus) Publish(msg *message.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	var errs []error
	if err := b.local.Publish(b.topic, msg); err != nil {
		metrics.EventsPublished.WithLabelValues("local", "error").Inc()
		errs = append(errs, fmt.Errorf("local: %w", err))
	} else {
		metrics.EventsPublished.WithLabelValues("local", "ok").Inc()
	}

	if b.external != nil {
		if err := b.external.Publish(b.topic, msg.Copy()); err != nil {
			metrics.EventsPublished.WithLabelValues("external", "error").Inc()
			errs = append(errs, fmt.Errorf("external: %w", err))
		} else {
			metrics.EventsPublished.WithLabelValues("external", "ok").Inc()
		}
	}
	return errors.Join(errs...)
}

// Subscribe returns the in-process stream of sensor updates. The channel
// closes when ctx ends or the bus is closed. Every message must be acked.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	return b.local.Subscribe(ctx, b.topic)
}

// Close shuts down the in-process channel and the external publisher.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.local.Close(); err != nil {
		errs = append(errs, err)
	}
	if b.external != nil {
		if err := b.external.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewSensorMessage encodes snap as a sensor_updated message.
func NewSensorMessage(snap sensor.Snapshot) (*message.Message, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataSensorID, snap.ID)
	msg.Metadata.Set(MetadataKind, snap.Kind)
	msg.Metadata.Set(MetadataState, string(snap.State))
	return msg, nil
}

// DecodeSensorMessage is the inverse of NewSensorMessage.
func DecodeSensorMessage(msg *message.Message) (sensor.Snapshot, error) {
	var snap sensor.Snapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		return sensor.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}
