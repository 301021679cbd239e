// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/mediasensors/internal/sensor"
)

// isolate runs the test from an empty directory so no stray config.yaml is
// picked up.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(ConfigPathEnvVar, "")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Kodi.Host != "localhost" || cfg.Kodi.Port != 8080 || cfg.Kodi.WebSocketPort != 9090 {
		t.Errorf("kodi = %+v", cfg.Kodi)
	}
	if cfg.Kodi.Timeout != 10*time.Second {
		t.Errorf("kodi.timeout = %v, want 10s", cfg.Kodi.Timeout)
	}
	if cfg.Kodi.Breaker.MinRequests != 10 || cfg.Kodi.Breaker.FailureRatio != 0.6 || cfg.Kodi.Breaker.Timeout != 2*time.Minute {
		t.Errorf("breaker = %+v", cfg.Kodi.Breaker)
	}
	if cfg.Sensors.Search.KeepAlive != 300*time.Second {
		t.Errorf("search keep_alive = %v", cfg.Sensors.Search.KeepAlive)
	}
	if cfg.Sensors.Search.Limits.Songs != 15 || cfg.Sensors.Search.Limits.Movies != 5 {
		t.Errorf("search limits = %+v", cfg.Sensors.Search.Limits)
	}
	if cfg.Sensors.RecentMovies.Limit != sensor.DefaultRecentLimit {
		t.Errorf("recent movies limit = %d", cfg.Sensors.RecentMovies.Limit)
	}
	if cfg.Events.NATS.Enabled {
		t.Error("NATS should be disabled by default")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
kodi:
  host: 192.168.1.20
  port: 8081
  username: kodi
  timeout: 5s
sensors:
  recent_movies:
    limit: 7
    hide_watched: true
  search:
    keep_alive: 10m
    limits:
      songs: 25
server:
  cors_origins:
    - http://ha.local:8123
`)
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Kodi.Host != "192.168.1.20" || cfg.Kodi.Port != 8081 || cfg.Kodi.Username != "kodi" {
		t.Errorf("kodi = %+v", cfg.Kodi)
	}
	if cfg.Kodi.Timeout != 5*time.Second {
		t.Errorf("kodi.timeout = %v", cfg.Kodi.Timeout)
	}
	opts := cfg.Sensors.RecentMovies.Options()
	if opts.Limit != 7 || !opts.HideWatched {
		t.Errorf("recent movies options = %+v", opts)
	}
	search := cfg.Sensors.Search.Options()
	if search.KeepAlive != 10*time.Minute || search.Limits.Songs != 25 || search.Limits.Albums != 10 {
		t.Errorf("search options = %+v", search)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://ha.local:8123" {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	isolate(t)
	t.Setenv(ConfigPathEnvVar, writeConfig(t, "kodi:\n  host: from-file\n  port: 8081\n"))
	t.Setenv("KODI_HOST", "from-env")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local,")
	t.Setenv("SENSOR_SEARCH_KEEP_ALIVE", "90s")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Kodi.Host != "from-env" {
		t.Errorf("kodi.host = %q, want from-env", cfg.Kodi.Host)
	}
	if cfg.Kodi.Port != 8081 {
		t.Errorf("kodi.port = %d, want 8081 from file", cfg.Kodi.Port)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("server.port = %d", cfg.Server.Port)
	}
	if got := strings.Join(cfg.Server.CORSOrigins, "|"); got != "http://a.local|http://b.local" {
		t.Errorf("cors origins = %q", got)
	}
	if cfg.Sensors.Search.KeepAlive != 90*time.Second {
		t.Errorf("search keep_alive = %v", cfg.Sensors.Search.KeepAlive)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	isolate(t)
	t.Setenv(ConfigPathEnvVar, writeConfig(t, "kodi: [unclosed\n"))

	if _, err := Load(); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"missing host", func(c *Config) { c.Kodi.Host = "" }, "kodi.host"},
		{"bad host", func(c *Config) { c.Kodi.Host = "not a host!" }, "kodi.host"},
		{"port out of range", func(c *Config) { c.Kodi.Port = 70000 }, "kodi.port"},
		{"limit above 100", func(c *Config) { c.Sensors.Search.Limits.Songs = 101 }, "sensors.search.limits.songs"},
		{"recent limit zero", func(c *Config) { c.Sensors.RecentEpisodes.Limit = 0 }, "sensors.recent_episodes.limit"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad unique id", func(c *Config) { c.Kodi.UniqueID = "Living Room" }, "kodi.unique_id"},
		{"keep alive above max", func(c *Config) { c.Sensors.Search.KeepAlive = 31 * time.Minute }, "keep_alive must be at most"},
		{"refresh above max", func(c *Config) { c.Sensors.RecentMovies.RefreshInterval = time.Hour }, "recent_movies.refresh_interval"},
		{"no sensors", func(c *Config) {
			c.Sensors.Playlist.Enabled = false
			c.Sensors.RecentMovies.Enabled = false
			c.Sensors.RecentEpisodes.Enabled = false
			c.Sensors.Search.Enabled = false
		}, "at least one sensor"},
		{"nats bad scheme", func(c *Config) {
			c.Events.NATS.Enabled = true
			c.Events.NATS.URL = "http://nats:4222"
		}, "scheme must be"},
		{"nats disabled ignores url", func(c *Config) { c.Events.NATS.URL = "garbage" }, ""},
		{"wildcard mixed with origins", func(c *Config) {
			c.Server.CORSOrigins = []string{"*", "http://a.local"}
		}, "cors_origins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNATSURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"nats://localhost:4222", false},
		{"tls://nats.example.com:4222", false},
		{"wss://nats.example.com", false},
		{"http://localhost:4222", true},
		{"nats://", true},
	}
	for _, tt := range tests {
		if err := validateNATSURL(tt.url); (err != nil) != tt.wantErr {
			t.Errorf("validateNATSURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestConversions(t *testing.T) {
	cfg := defaultConfig()
	cfg.Kodi.SSL = true
	cfg.Kodi.UniqueID = "den"

	client := cfg.Kodi.ClientConfig()
	if client.Host != "localhost" || client.Port != 8080 || !client.SSL || client.Timeout != 10*time.Second {
		t.Errorf("ClientConfig = %+v", client)
	}
	manager := cfg.Kodi.ManagerConfig()
	if manager.WebSocketPort != 9090 || !manager.NotificationsEnabled || manager.PollInterval != 10*time.Second {
		t.Errorf("ManagerConfig = %+v", manager)
	}
	if b := cfg.Kodi.BreakerConfig(); b.MinRequests != 10 || b.FailureRatio != 0.6 {
		t.Errorf("BreakerConfig = %+v", b)
	}
	if l := cfg.Logging.LoggerConfig(); l.Level != "info" || !l.Timestamp {
		t.Errorf("LoggerConfig = %+v", l)
	}
	if bus := cfg.Events.BusConfig(); bus.Topic != "sensors.updated" || bus.OutputBuffer != 256 {
		t.Errorf("BusConfig = %+v", bus)
	}
	if n := cfg.Events.NATSConfig(); n.URL != "nats://127.0.0.1:4222" || n.MaxReconnects != -1 {
		t.Errorf("NATSConfig = %+v", n)
	}
}
