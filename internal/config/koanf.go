// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/mediasensors/internal/events"
	"github.com/tomtom215/mediasensors/internal/sensor"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mediasensors/config.yaml",
	"/etc/mediasensors/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	limits := sensor.DefaultSearchLimits()
	return &Config{
		Kodi: KodiConfig{
			Host:                 "localhost",
			Port:                 8080,
			Timeout:              10 * time.Second,
			WebSocketPort:        9090,
			NotificationsEnabled: true,
			PollInterval:         10 * time.Second,
			RequestsPerSecond:    20,
			Burst:                10,
			Breaker: BreakerConfig{
				MinRequests:  10,
				FailureRatio: 0.6,
				Timeout:      2 * time.Minute,
				MaxRequests:  3,
			},
		},
		Sensors: SensorsConfig{
			Playlist: PlaylistSensorConfig{Enabled: true},
			RecentMovies: RecentSensorConfig{
				Enabled:         true,
				Limit:           sensor.DefaultRecentLimit,
				RefreshInterval: sensor.DefaultRecentRefreshInterval,
			},
			RecentEpisodes: RecentSensorConfig{
				Enabled:         true,
				Limit:           sensor.DefaultRecentLimit,
				RefreshInterval: sensor.DefaultRecentRefreshInterval,
			},
			Search: SearchSensorConfig{
				Enabled:   true,
				KeepAlive: sensor.DefaultSearchKeepAlive,
				Limits: SearchLimitsConfig{
					Songs:             limits.Songs,
					Albums:            limits.Albums,
					Artists:           limits.Artists,
					Movies:            limits.Movies,
					TVShows:           limits.TVShows,
					Episodes:          limits.Episodes,
					MusicVideos:       limits.MusicVideos,
					ChannelsTV:        limits.ChannelsTV,
					ChannelsRadio:     limits.ChannelsRadio,
					RecentSongs:       limits.RecentSongs,
					RecentAlbums:      limits.RecentAlbums,
					RecentMovies:      limits.RecentMovies,
					RecentMusicVideos: limits.RecentMusicVideos,
					RecentEpisodes:    limits.RecentEpisodes,
					PlayedSongs:       limits.PlayedSongs,
					PlayedAlbums:      limits.PlayedAlbums,
				},
			},
			KeepAliveTick: 30 * time.Second,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8099,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CommandTimeout:    30 * time.Second,
			CORSOrigins:       []string{},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Events: EventsConfig{
			Topic:        events.TopicSensorUpdated,
			OutputBuffer: 256,
			NATS: NATSConfig{
				URL:           "nats://127.0.0.1:4222",
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
			},
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load reads configuration in three layers, later layers winning:
//
//  1. Built-in defaults
//  2. Config file (CONFIG_PATH, or the first of DefaultConfigPaths that exists)
//  3. Environment variables listed in envMappings
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they come from
// the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"kodi_host":                "kodi.host",
	"kodi_port":                "kodi.port",
	"kodi_ssl":                 "kodi.ssl",
	"kodi_username":            "kodi.username",
	"kodi_password":            "kodi.password",
	"kodi_timeout":             "kodi.timeout",
	"kodi_ws_port":             "kodi.ws_port",
	"kodi_notifications":       "kodi.notifications",
	"kodi_poll_interval":       "kodi.poll_interval",
	"kodi_requests_per_second": "kodi.requests_per_second",
	"kodi_burst":               "kodi.burst",
	"kodi_unique_id":           "kodi.unique_id",

	"sensor_playlist_enabled":             "sensors.playlist.enabled",
	"sensor_recent_movies_enabled":        "sensors.recent_movies.enabled",
	"sensor_recent_movies_limit":          "sensors.recent_movies.limit",
	"sensor_recent_movies_hide_watched":   "sensors.recent_movies.hide_watched",
	"sensor_recent_episodes_enabled":      "sensors.recent_episodes.enabled",
	"sensor_recent_episodes_limit":        "sensors.recent_episodes.limit",
	"sensor_recent_episodes_hide_watched": "sensors.recent_episodes.hide_watched",
	"sensor_search_enabled":               "sensors.search.enabled",
	"sensor_search_keep_alive":            "sensors.search.keep_alive",
	"sensor_keep_alive_tick":              "sensors.keep_alive_tick",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",
	"command_timeout":     "server.command_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"nats_enabled":   "events.nats.enabled",
	"nats_url":       "events.nats.url",
	"nats_jetstream": "events.nats.jetstream",
}

// envTransformFunc maps KODI_HOST to kodi.host and drops unknown variables.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
