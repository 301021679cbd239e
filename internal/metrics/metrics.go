// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package metrics holds the Prometheus collectors for the sensor service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Kodi JSON-RPC gateway
	KodiRPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kodi_rpc_requests_total",
			Help: "Total number of Kodi JSON-RPC calls",
		},
		[]string{"method", "outcome"}, // outcome: "ok", "app_error", "unavailable"
	)

	KodiRPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kodi_rpc_duration_seconds",
			Help:    "Duration of Kodi JSON-RPC calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	KodiNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kodi_notifications_total",
			Help: "Total number of Kodi websocket notifications received",
		},
		[]string{"method"},
	)

	KodiWebSocketReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kodi_websocket_reconnects_total",
			Help: "Total number of Kodi notification websocket reconnect attempts",
		},
	)

	KodiLifecycleEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kodi_lifecycle_events_total",
			Help: "Player lifecycle events emitted by the tracker",
		},
		[]string{"new_state"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Sensor engines
	SensorState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sensor_state",
			Help: "Current sensor state (0=offline, 1=online, 2=degraded, 3=empty)",
		},
		[]string{"sensor"},
	)

	SensorActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_actions_total",
			Help: "Actions executed by sensor engines",
		},
		[]string{"sensor", "action"},
	)

	SensorCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_commands_total",
			Help: "Commands invoked on sensors",
		},
		[]string{"sensor", "command", "outcome"}, // outcome: "ok", "usage_error", "error"
	)

	SensorDirtySignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_dirty_signals_total",
			Help: "Number of re-render signals emitted per sensor",
		},
		[]string{"sensor"},
	)

	SensorDegradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_degradations_total",
			Help: "Number of times a sensor was demoted to DEGRADED",
		},
		[]string{"sensor"},
	)

	SensorResultItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sensor_result_items",
			Help: "Number of result items currently held by a sensor",
		},
		[]string{"sensor"},
	)

	SensorSyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sensor_sync_duration_seconds",
			Help:    "Time spent handling one sensor input (event, command or tick)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"sensor"},
	)

	// Fan-out
	FanoutDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_deliveries_total",
			Help: "Fan-out notifications delivered to sibling sensors",
		},
		[]string{"event", "outcome"}, // outcome: "delivered", "failed"
	)

	// Result cache
	ResultCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "result_cache_hits_total",
			Help: "Fresh result cache lookups",
		},
	)

	ResultCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "result_cache_misses_total",
			Help: "Stale or missing result cache lookups",
		},
	)

	// Event bus and push clients
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_events_published_total",
			Help: "Sensor update events published on the event bus",
		},
		[]string{"sink", "outcome"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of connected websocket clients",
		},
	)

	// HTTP API
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordRPC records the outcome and latency of one gateway call.
func RecordRPC(method, outcome string, duration time.Duration) {
	KodiRPCRequests.WithLabelValues(method, outcome).Inc()
	KodiRPCDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSensorSync records how long a sensor spent on one input.
func RecordSensorSync(sensor string, duration time.Duration) {
	SensorSyncDuration.WithLabelValues(sensor).Observe(duration.Seconds())
}

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
