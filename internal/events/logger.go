// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/tomtom215/mediasensors/internal/logging"
)

// ZerologAdapter routes watermill's internal logging through zerolog.
// Watermill's info chatter is demoted to debug.
type ZerologAdapter struct {
	logger zerolog.Logger
}

var _ watermill.LoggerAdapter = (*ZerologAdapter)(nil)

// NewZerologAdapter returns an adapter on the global logger tagged with
// component=events.
func NewZerologAdapter() *ZerologAdapter {
	return &ZerologAdapter{logger: logging.WithComponent("events")}
}

// NewZerologAdapterWithLogger wraps a specific logger. Intended for tests.
//
//nolint:gocritic // zerolog.Logger is a value type
func NewZerologAdapterWithLogger(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

func (a *ZerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a *ZerologAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a *ZerologAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a *ZerologAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (a *ZerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &ZerologAdapter{logger: a.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}
