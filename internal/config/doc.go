// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package config loads the media sensors configuration with koanf.

Precedence, highest first: environment variables, the YAML config file,
built-in defaults. The config file is CONFIG_PATH or the first existing
entry of DefaultConfigPaths.

Example config.yaml:

	kodi:
	  host: 192.168.1.20
	  port: 8080
	  username: kodi
	  password: secret
	sensors:
	  recent_movies:
	    limit: 10
	    hide_watched: true
	  search:
	    keep_alive: 10m
	    limits:
	      songs: 25
	server:
	  port: 8099
	  cors_origins: ["http://homeassistant.local:8123"]
	events:
	  nats:
	    enabled: true
	    url: nats://nats:4222

Struct tags are checked with go-playground/validator; cross-field rules
(keep-alive windows at most 30 minutes, NATS URL scheme, CORS wildcard) are
checked in Validate.
*/
package config
