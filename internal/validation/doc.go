// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the HTTP layer (command request
// bodies) and the config loader. Field names in errors follow json tags,
// falling back to koanf tags, so messages read "kodi.port must be at most
// 65535" rather than naming Go fields.
//
// Custom tags:
//
//	commandname  lowercase sensor command name, e.g. "moveto", "reset_addons"
//	sensorid     sensor id, e.g. "kms_p_living_room"
//
// Example:
//
//	type CommandRequest struct {
//	    Command string         `json:"command" validate:"required,commandname"`
//	    Args    map[string]any `json:"args"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    apiErr := err.ToAPIError()
//	    ...
//	}
package validation
