// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package main runs the Kodi media sensors service.

The service connects to one Kodi host over JSON-RPC, tracks the player
through the notification websocket (with a polling fallback), and keeps a
set of derived sensors up to date:

  - playlist (kms_p_): the active playlist with goto/remove/move commands
  - recently added movies and episodes
  - search (kodi_media_sensor_search): library search, play and add

Sensor snapshots are published on an in-process watermill bus, pushed to
websocket clients and, when built with -tags nats, mirrored to NATS.

# Supervisor Tree

	mediasensors
	├── data-layer       kodi-manager, sensor-<id>..., keep-alive-ticker
	├── messaging-layer  websocket-hub, event-forwarder
	└── api-layer        http-server

# Configuration

Defaults, then config.yaml (or CONFIG_PATH), then environment variables:

	KODI_HOST=192.168.1.20       # required
	KODI_PORT=8080
	KODI_USERNAME=kodi
	KODI_PASSWORD=secret
	KODI_WS_PORT=9090
	KODI_UNIQUE_ID=livingroom    # suffix for sensor ids

	SENSOR_SEARCH_ENABLED=true
	SENSOR_RECENT_MOVIES_LIMIT=20

	HTTP_PORT=8099
	CORS_ORIGINS=http://dashboard.local
	LOG_LEVEL=info
	LOG_FORMAT=json

	NATS_ENABLED=true            # requires -tags nats
	NATS_URL=nats://nats:4222

# Build Tags

	go build ./cmd/server               # in-process bus only
	go build -tags nats ./cmd/server    # mirror sensor updates to NATS

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests for server.shutdown_timeout, sensors finish the pass
they are in, and the event bus is closed last.
*/
package main
