// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/mediasensors/internal/middleware"
)

// Router builds the HTTP routing tree.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
}

// NewRouter creates a Router. A nil mw uses the default middleware config.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, middleware: mw}
}

// Setup returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := router.handler
	mw := router.middleware

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.SecurityHeaders())
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)

		r.Route("/health", func(r chi.Router) {
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		// The websocket stays outside the rate limiter; one request holds
		// the connection for its whole lifetime.
		r.Get("/ws", h.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())
			r.Use(chimiddleware.Compress(5, "application/json"))

			r.Route("/sensors", func(r chi.Router) {
				r.Get("/", h.ListSensors)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetSensor)
					r.Get("/commands", h.Commands)
					r.Post("/commands", h.ExecuteCommand)
				})
			})
		})
	})

	return r
}
