// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package events

import "time"

// NATSConfig configures the optional external publisher. It is only used
// by binaries built with the nats tag.
type NATSConfig struct {
	// Enabled mirrors sensor updates to NATS.
	Enabled bool

	// URL is the NATS server connection URL.
	URL string

	// JetStream publishes through JetStream instead of core NATS. The
	// stream covering the topic is provisioned on first publish.
	JetStream bool

	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// DefaultNATSConfig returns production defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Enabled:         false,
		URL:             "nats://127.0.0.1:4222",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024,
	}
}
