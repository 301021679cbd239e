// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/tomtom215/mediasensors/internal/cache"
	"github.com/tomtom215/mediasensors/internal/validation"
)

// Validate runs the struct tag rules, then the checks that span fields.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateSensors(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	return c.validateCORS()
}

func (c *Config) validateSensors() error {
	s := c.Sensors
	if !s.Playlist.Enabled && !s.RecentMovies.Enabled && !s.RecentEpisodes.Enabled && !s.Search.Enabled {
		return errors.New("at least one sensor kind must be enabled")
	}
	if s.Search.KeepAlive > cache.MaxKeepAlive {
		return fmt.Errorf("sensors.search.keep_alive must be at most %s, got %s", cache.MaxKeepAlive, s.Search.KeepAlive)
	}
	for name, r := range map[string]RecentSensorConfig{"recent_movies": s.RecentMovies, "recent_episodes": s.RecentEpisodes} {
		if r.RefreshInterval > cache.MaxKeepAlive {
			return fmt.Errorf("sensors.%s.refresh_interval must be at most %s, got %s", name, cache.MaxKeepAlive, r.RefreshInterval)
		}
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.Events.NATS.Enabled {
		return nil
	}
	return validateNATSURL(c.Events.NATS.URL)
}

// validateNATSURL accepts nats, tls, ws and wss URLs with a host.
func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("events.nats.url: failed to parse URL: %w", err)
	}

	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("events.nats.url: scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("events.nats.url: host is required (e.g., localhost:4222)")
	}
	return nil
}

// validateCORS rejects a wildcard mixed with explicit origins.
func (c *Config) validateCORS() error {
	origins := c.Server.CORSOrigins
	for _, o := range origins {
		if o == "*" && len(origins) > 1 {
			return errors.New("server.cors_origins: '*' cannot be combined with explicit origins")
		}
	}
	return nil
}

// HasWildcardCORS reports whether every origin is allowed.
func (c *Config) HasWildcardCORS() bool {
	return len(c.Server.CORSOrigins) == 1 && c.Server.CORSOrigins[0] == "*"
}
