// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package middleware provides HTTP middleware shared by the API router.

  - RequestID: reuses or generates X-Request-ID and puts a request-scoped
    zerolog logger in the context (read it back with logging.Ctx)
  - PrometheusMetrics: api_requests_total and api_request_duration_seconds
    labeled by chi route pattern

Both have the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    ...
	})
*/
package middleware
