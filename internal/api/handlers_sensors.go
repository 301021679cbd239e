// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/sensor"
	"github.com/tomtom215/mediasensors/internal/validation"
)

// ListSensors returns {id, kind, state} for every registered sensor.
func (h *Handler) ListSensors(w http.ResponseWriter, r *http.Request) {
	infos := h.registry.Infos()
	count := len(infos)
	NewResponseWriter(w, r).SuccessWithMeta(http.StatusOK, infos, &APIMeta{Count: &count})
}

// GetSensor returns the last published snapshot of one sensor.
func (h *Handler) GetSensor(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, r, s.Snapshot())
}

// Commands lists the commands a sensor accepts.
func (h *Handler) Commands(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, r, map[string]interface{}{
		"id":       s.ID(),
		"kind":     s.Kind(),
		"commands": s.Commands(),
	})
}

// ExecuteCommand runs one command on a sensor and returns the snapshot it
// published afterwards.
func (h *Handler) ExecuteCommand(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBodyBytes)).Decode(&req); err != nil {
		rw.BadRequest("invalid request body: " + err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	log := logging.Ctx(r.Context()).With().Str("sensor", s.ID()).Str("command", req.Command).Logger()

	ctx, cancel := context.WithTimeout(r.Context(), h.commandTimeout)
	defer cancel()

	err := s.Invoke(ctx, req.toCommand())
	switch {
	case err == nil:
		log.Info().Msg("Command executed")
		rw.Success(s.Snapshot())
	case errors.Is(err, sensor.ErrUnknownCommand):
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeUnknownCommand, err.Error(),
			map[string]interface{}{"commands": s.Commands()})
	case sensor.IsUsageError(err):
		rw.Error(http.StatusBadRequest, ErrCodeInvalidArguments, err.Error())
	case errors.Is(err, sensor.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Msg("Command not completed")
		rw.ServiceUnavailable(err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away.
		log.Debug().Msg("Command canceled by client")
	default:
		log.Error().Err(err).Msg("Command failed")
		rw.InternalError(err.Error())
	}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*sensor.Sensor, bool) {
	id := chi.URLParam(r, "id")
	s, ok := h.registry.Get(id)
	if !ok {
		NewResponseWriter(w, r).NotFound("sensor not found: " + id)
		return nil, false
	}
	return s, true
}
