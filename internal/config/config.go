// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"time"

	"github.com/tomtom215/mediasensors/internal/events"
	"github.com/tomtom215/mediasensors/internal/kodi"
	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/sensor"
)

// Config holds all application configuration.
type Config struct {
	Kodi       KodiConfig       `koanf:"kodi"`
	Sensors    SensorsConfig    `koanf:"sensors"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Events     EventsConfig     `koanf:"events"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// KodiConfig describes the Kodi instance the sensors are attached to.
//
// Environment Variables:
//   - KODI_HOST, KODI_PORT, KODI_SSL, KODI_USERNAME, KODI_PASSWORD
//   - KODI_TIMEOUT: HTTP timeout per JSON-RPC call (default: 10s)
//   - KODI_WS_PORT: notification websocket port (default: 9090)
//   - KODI_NOTIFICATIONS: subscribe to player notifications (default: true)
//   - KODI_POLL_INTERVAL: fallback player poll interval, 0 disables (default: 10s)
//   - KODI_UNIQUE_ID: suffix appended to sensor ids
type KodiConfig struct {
	Host     string        `koanf:"host" validate:"required,hostname|ip"`
	Port     int           `koanf:"port" validate:"gte=1,lte=65535"`
	SSL      bool          `koanf:"ssl"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`

	WebSocketPort        int           `koanf:"ws_port" validate:"gte=1,lte=65535"`
	NotificationsEnabled bool          `koanf:"notifications"`
	PollInterval         time.Duration `koanf:"poll_interval" validate:"gte=0"`

	// RequestsPerSecond throttles outbound JSON-RPC calls; 0 disables.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`
	Burst             int     `koanf:"burst" validate:"gte=0"`

	// UniqueID distinguishes sensors when more than one process talks to
	// the same Home Assistant style consumer.
	UniqueID string `koanf:"unique_id" validate:"omitempty,sensorid"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker around the Kodi gateway.
type BreakerConfig struct {
	MinRequests  uint32        `koanf:"min_requests" validate:"gte=1"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gt=0,lte=1"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRequests  uint32        `koanf:"half_open_requests" validate:"gte=1"`
}

// SensorsConfig selects and tunes the sensor kinds.
type SensorsConfig struct {
	Playlist       PlaylistSensorConfig `koanf:"playlist"`
	RecentMovies   RecentSensorConfig   `koanf:"recent_movies"`
	RecentEpisodes RecentSensorConfig   `koanf:"recent_episodes"`
	Search         SearchSensorConfig   `koanf:"search"`

	// KeepAliveTick is how often every sensor gets a keep-alive check.
	KeepAliveTick time.Duration `koanf:"keep_alive_tick" validate:"gt=0"`
}

// PlaylistSensorConfig configures the playlist sensor.
type PlaylistSensorConfig struct {
	Enabled bool `koanf:"enabled"`
}

// RecentSensorConfig configures a recently added sensor.
type RecentSensorConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Limit           int           `koanf:"limit" validate:"gte=1,lte=100"`
	HideWatched     bool          `koanf:"hide_watched"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gte=0"`
}

// SearchSensorConfig configures the search sensor.
type SearchSensorConfig struct {
	Enabled   bool               `koanf:"enabled"`
	KeepAlive time.Duration      `koanf:"keep_alive" validate:"gte=0"`
	Limits    SearchLimitsConfig `koanf:"limits"`
}

// SearchLimitsConfig holds per-category result limits.
type SearchLimitsConfig struct {
	Songs         int `koanf:"songs" validate:"gte=0,lte=100"`
	Albums        int `koanf:"albums" validate:"gte=0,lte=100"`
	Artists       int `koanf:"artists" validate:"gte=0,lte=100"`
	Movies        int `koanf:"movies" validate:"gte=0,lte=100"`
	TVShows       int `koanf:"tvshows" validate:"gte=0,lte=100"`
	Episodes      int `koanf:"episodes" validate:"gte=0,lte=100"`
	MusicVideos   int `koanf:"musicvideos" validate:"gte=0,lte=100"`
	ChannelsTV    int `koanf:"channels_tv" validate:"gte=0,lte=100"`
	ChannelsRadio int `koanf:"channels_radio" validate:"gte=0,lte=100"`

	RecentSongs       int `koanf:"recent_songs" validate:"gte=0,lte=100"`
	RecentAlbums      int `koanf:"recent_albums" validate:"gte=0,lte=100"`
	RecentMovies      int `koanf:"recent_movies" validate:"gte=0,lte=100"`
	RecentMusicVideos int `koanf:"recent_musicvideos" validate:"gte=0,lte=100"`
	RecentEpisodes    int `koanf:"recent_episodes" validate:"gte=0,lte=100"`
	PlayedSongs       int `koanf:"played_songs" validate:"gte=0,lte=100"`
	PlayedAlbums      int `koanf:"played_albums" validate:"gte=0,lte=100"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CommandTimeout  time.Duration `koanf:"command_timeout" validate:"gt=0"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	HSTS              bool          `koanf:"hsts"`
}

// LoggingConfig holds logging configuration.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// EventsConfig configures the sensor update bus.
type EventsConfig struct {
	Topic        string     `koanf:"topic" validate:"required"`
	OutputBuffer int64      `koanf:"output_buffer" validate:"gte=0"`
	NATS         NATSConfig `koanf:"nats"`
}

// NATSConfig mirrors sensor updates to an external NATS server. Requires a
// binary built with -tags nats.
type NATSConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url"`
	JetStream     bool          `koanf:"jetstream"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait" validate:"gte=0"`
}

// SupervisorConfig tunes the suture restart policy.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// ClientConfig returns the Kodi HTTP client settings.
func (c *KodiConfig) ClientConfig() kodi.ClientConfig {
	return kodi.ClientConfig{
		Host:              c.Host,
		Port:              c.Port,
		SSL:               c.SSL,
		Username:          c.Username,
		Password:          c.Password,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
	}
}

// ManagerConfig returns the player tracking settings.
func (c *KodiConfig) ManagerConfig() kodi.ManagerConfig {
	return kodi.ManagerConfig{
		Host:                 c.Host,
		WebSocketPort:        c.WebSocketPort,
		SSL:                  c.SSL,
		NotificationsEnabled: c.NotificationsEnabled,
		PollInterval:         c.PollInterval,
	}
}

// BreakerConfig returns the gateway circuit breaker settings.
func (c *KodiConfig) BreakerConfig() kodi.BreakerConfig {
	return kodi.BreakerConfig{
		MaxRequests:  c.Breaker.MaxRequests,
		Timeout:      c.Breaker.Timeout,
		MinRequests:  c.Breaker.MinRequests,
		FailureRatio: c.Breaker.FailureRatio,
	}
}

// Options returns the sensor options for a recently added sensor.
func (c *RecentSensorConfig) Options() sensor.RecentOptions {
	return sensor.RecentOptions{
		Limit:           c.Limit,
		HideWatched:     c.HideWatched,
		RefreshInterval: c.RefreshInterval,
	}
}

// Options returns the search sensor options.
func (c *SearchSensorConfig) Options() sensor.SearchOptions {
	l := c.Limits
	return sensor.SearchOptions{
		KeepAlive: c.KeepAlive,
		Limits: sensor.SearchLimits{
			Songs:             l.Songs,
			Albums:            l.Albums,
			Artists:           l.Artists,
			Movies:            l.Movies,
			TVShows:           l.TVShows,
			Episodes:          l.Episodes,
			MusicVideos:       l.MusicVideos,
			ChannelsTV:        l.ChannelsTV,
			ChannelsRadio:     l.ChannelsRadio,
			RecentSongs:       l.RecentSongs,
			RecentAlbums:      l.RecentAlbums,
			RecentMovies:      l.RecentMovies,
			RecentMusicVideos: l.RecentMusicVideos,
			RecentEpisodes:    l.RecentEpisodes,
			PlayedSongs:       l.PlayedSongs,
			PlayedAlbums:      l.PlayedAlbums,
		},
	}
}

// LoggerConfig returns the logger settings.
func (c *LoggingConfig) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Level
	cfg.Format = c.Format
	cfg.Caller = c.Caller
	return cfg
}

// NATSConfig returns the NATS publisher settings.
func (c *EventsConfig) NATSConfig() events.NATSConfig {
	cfg := events.DefaultNATSConfig()
	cfg.Enabled = c.NATS.Enabled
	cfg.URL = c.NATS.URL
	cfg.JetStream = c.NATS.JetStream
	cfg.MaxReconnects = c.NATS.MaxReconnects
	cfg.ReconnectWait = c.NATS.ReconnectWait
	return cfg
}

// BusConfig returns the event bus settings.
func (c *EventsConfig) BusConfig() events.BusConfig {
	cfg := events.DefaultBusConfig()
	cfg.Topic = c.Topic
	if c.OutputBuffer > 0 {
		cfg.OutputBuffer = c.OutputBuffer
	}
	return cfg
}
