// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package api exposes the media sensors over HTTP.

Routes (all JSON, wrapped in APIResponse):

	GET  /api/v1/health/live           process liveness
	GET  /api/v1/health/ready          200 when Kodi answers JSONRPC.Ping, else 503
	GET  /api/v1/sensors               {id, kind, state} for every sensor
	GET  /api/v1/sensors/{id}          full snapshot with attributes {meta, data}
	POST /api/v1/sensors/{id}/commands {"command": "...", "args": {...}}
	GET  /api/v1/ws                    websocket stream of sensor_updated messages
	GET  /metrics                      Prometheus exposition

Command errors map to status codes as follows:

  - malformed body or failed validation: 400 VALIDATION_FAILED / BAD_REQUEST
  - command not supported by the sensor kind: 400 UNKNOWN_COMMAND
  - invalid command arguments (sensor.UsageError): 400 INVALID_ARGUMENTS
  - unknown sensor id: 404 NOT_FOUND
  - sensor stopped or command timed out: 503 SERVICE_UNAVAILABLE

Gateway failures during a command are not errors for the caller; the
sensor degrades and the returned snapshot shows state DEGRADED.

Middleware order: request id and logger, real IP, recoverer, security
headers, CORS, then per-IP rate limiting and Prometheus metrics on /api/v1.
*/
package api
