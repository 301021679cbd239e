// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"fmt"

	"github.com/tomtom215/mediasensors/internal/cache"
	"github.com/tomtom215/mediasensors/internal/config"
	"github.com/tomtom215/mediasensors/internal/fanout"
	"github.com/tomtom215/mediasensors/internal/kodi"
	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/normalize"
	"github.com/tomtom215/mediasensors/internal/sensor"
)

// app is everything that talks to one Kodi host.
type app struct {
	gateway  kodi.Gateway
	manager  *kodi.Manager
	registry *sensor.Registry
	notifier *fanout.Notifier
}

// buildApp creates the gateway chain, the enabled sensors and the manager
// that drives them. Nothing is started.
func buildApp(cfg *config.Config, sink sensor.DirtySink) (*app, error) {
	clientCfg := cfg.Kodi.ClientConfig()
	gw := kodi.NewBreakerGateway(kodi.NewClient(clientCfg), cfg.Kodi.BreakerConfig())

	notifier := fanout.New()
	deps := sensor.Deps{
		Gateway:    gw,
		Normalizer: normalize.New(kodi.NewImageResolver(clientCfg)),
		Cache:      cache.New(),
		Notifier:   notifier,
		Sink:       sink,
	}

	registry := sensor.NewRegistry()
	for _, s := range newSensors(&cfg.Sensors, cfg.Kodi.UniqueID, deps) {
		if err := registry.Add(s); err != nil {
			return nil, fmt.Errorf("register sensor %s: %w", s.ID(), err)
		}
		notifier.Register(s)
		logging.Info().Str("sensor", s.ID()).Str("kind", s.Kind()).Msg("Sensor enabled")
	}

	manager := kodi.NewManager(gw, cfg.Kodi.ManagerConfig())
	manager.Tracker().Subscribe(registry.Deliver)

	return &app{
		gateway:  gw,
		manager:  manager,
		registry: registry,
		notifier: notifier,
	}, nil
}

func newSensors(cfg *config.SensorsConfig, uniqueID string, deps sensor.Deps) []*sensor.Sensor {
	var out []*sensor.Sensor
	if cfg.Playlist.Enabled {
		out = append(out, sensor.NewPlaylist(uniqueID, deps))
	}
	if cfg.RecentMovies.Enabled {
		out = append(out, sensor.NewRecentMovies(uniqueID, deps, cfg.RecentMovies.Options()))
	}
	if cfg.RecentEpisodes.Enabled {
		out = append(out, sensor.NewRecentEpisodes(uniqueID, deps, cfg.RecentEpisodes.Options()))
	}
	if cfg.Search.Enabled {
		out = append(out, sensor.NewSearch(uniqueID, deps, cfg.Search.Options()))
	}
	return out
}
