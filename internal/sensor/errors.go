// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand is returned for a command the sensor kind does not support.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrStopped is returned once the sensor loop has exited.
	ErrStopped = errors.New("sensor stopped")
)

// UsageError reports an invalid command argument. Nothing was mutated.
type UsageError struct {
	Command string
	Reason  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid %s command: %s", e.Command, e.Reason)
}

func usageErrorf(command, format string, args ...any) *UsageError {
	return &UsageError{Command: command, Reason: fmt.Sprintf(format, args...)}
}

// IsUsageError reports whether err is a *UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}
