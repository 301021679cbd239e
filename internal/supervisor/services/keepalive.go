// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package services

import (
	"context"
	"time"

	"github.com/tomtom215/mediasensors/internal/logging"
)

// DefaultKeepAliveTick is used when the configured interval is not positive.
const DefaultKeepAliveTick = 30 * time.Second

// Ticker is satisfied by *sensor.Registry.
type Ticker interface {
	Tick()
}

// KeepAliveService asks every sensor for a keep-alive check on a fixed
// interval. Sensors decide for themselves whether their cache expired.
type KeepAliveService struct {
	target   Ticker
	interval time.Duration
}

// NewKeepAliveService ticks target every interval.
func NewKeepAliveService(target Ticker, interval time.Duration) *KeepAliveService {
	if interval <= 0 {
		interval = DefaultKeepAliveTick
	}
	return &KeepAliveService{target: target, interval: interval}
}

// Serve ticks until ctx is canceled.
func (k *KeepAliveService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	logging.Debug().Dur("interval", k.interval).Msg("Keep-alive ticker started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			k.target.Tick()
		}
	}
}

func (k *KeepAliveService) String() string {
	return "keep-alive-ticker"
}
