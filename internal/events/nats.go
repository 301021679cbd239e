// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

//go:build nats

package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"
)

// NATSAvailable reports whether this binary was built with NATS support.
const NATSAvailable = true

// NATSPublisher mirrors sensor updates to a NATS server. Publishing goes
// through a circuit breaker so an unreachable broker fails fast instead of
// delaying the in-process bus.
type NATSPublisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

var _ message.Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to cfg.URL.
func NewNATSPublisher(cfg NATSConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      !cfg.JetStream,
			AutoProvision: cfg.JetStream,
			TrackMsgId:    cfg.JetStream,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "nats-publisher",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("NATS publisher breaker state changed", watermill.LogFields{
				"from": from.String(),
				"to":   to.String(),
			})
		},
	})

	return &NATSPublisher{publisher: pub, breaker: breaker, logger: logger}, nil
}

// Publish sends msgs to topic. The message UUID doubles as the JetStream
// deduplication id.
func (p *NATSPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("nats publisher is closed")
	}

	for _, msg := range msgs {
		if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
			msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
		}
	}
	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(topic, msgs...)
	})
	return err
}

// Close shuts down the underlying connection.
func (p *NATSPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
