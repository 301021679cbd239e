// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

//go:build !nats

package events

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// NATSAvailable reports whether this binary was built with NATS support.
const NATSAvailable = false

// ErrNATSNotBuilt is returned when NATS is requested from a binary built
// without the nats tag.
var ErrNATSNotBuilt = errors.New("NATS support not compiled in; rebuild with -tags nats")

// NewNATSPublisher always fails in builds without the nats tag.
func NewNATSPublisher(_ NATSConfig, _ watermill.LoggerAdapter) (message.Publisher, error) {
	return nil, ErrNATSNotBuilt
}
