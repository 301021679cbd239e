// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package kodi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps every transport-level failure: refused connection,
	// timeout, non-200 status or an undecodable response.
	ErrUnavailable = errors.New("kodi unavailable")

	// ErrCircuitOpen is returned without contacting Kodi while the breaker is open.
	ErrCircuitOpen = errors.New("kodi circuit breaker open")
)

// RPCError is an application-level error object returned by Kodi in an
// otherwise well-formed JSON-RPC response.
type RPCError struct {
	Method  string
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("kodi %s returned error %d: %s", e.Method, e.Code, e.Message)
}

// IsApplicationError reports whether err carries a Kodi error object.
func IsApplicationError(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr)
}
