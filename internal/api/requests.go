// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import "github.com/tomtom215/mediasensors/internal/sensor"

// maxCommandBodyBytes bounds POST /sensors/{id}/commands bodies.
const maxCommandBodyBytes = 64 * 1024

// CommandRequest is the body of a sensor command.
type CommandRequest struct {
	Command string         `json:"command" validate:"required,commandname"`
	Args    map[string]any `json:"args,omitempty"`
}

func (c CommandRequest) toCommand() sensor.Command {
	return sensor.Command{Name: c.Command, Args: c.Args}
}
