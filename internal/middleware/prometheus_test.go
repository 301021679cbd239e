// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/mediasensors/internal/metrics"
)

func TestPrometheusMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/api/v1/sensors/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("OK"))
	})

	tests := []struct {
		name   string
		path   string
		status string
		code   int
	}{
		{"success uses route pattern", "/api/v1/sensors/kms_p_", "200", http.StatusOK},
		{"explicit status is captured", "/api/v1/sensors/missing", "404", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := metrics.APIRequests.WithLabelValues(http.MethodGet, "/api/v1/sensors/{id}", tt.status)
			before := testutil.ToFloat64(counter)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, rec.Code)
			}
			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("Expected counter delta 1, got %v", got)
			}
		})
	}
}

func TestRoutePatternWithoutChi(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	if got := routePattern(req); got != "unmatched" {
		t.Errorf("Expected unmatched, got %q", got)
	}
}

func TestMetricsResponseWriterFirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusTeapot)

	if rw.statusCode != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", rw.statusCode)
	}
}
