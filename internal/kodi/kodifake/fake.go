// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package kodifake provides an in-memory kodi.Gateway for tests.
package kodifake

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediasensors/internal/kodi"
)

// Handler answers one method. params is the request decoded as a generic map.
type Handler func(params map[string]any) (any, error)

// Call is one recorded request.
type Call struct {
	Method string
	Params map[string]any
}

// Gateway dispatches calls to registered handlers. Unregistered methods
// answer with Kodi's "Method not found." error object.
type Gateway struct {
	id string

	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
}

var _ kodi.Gateway = (*Gateway)(nil)

// New creates a gateway with the given identity.
func New(id string) *Gateway {
	return &Gateway{id: id, handlers: make(map[string]Handler)}
}

// ID returns the gateway identity.
func (g *Gateway) ID() string { return g.id }

// Handle registers h for method, replacing any previous handler.
func (g *Gateway) Handle(method string, h Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[method] = h
}

// Respond registers a handler that always returns result.
func (g *Gateway) Respond(method string, result any) {
	g.Handle(method, func(map[string]any) (any, error) { return result, nil })
}

// Fail registers a handler that always returns err.
func (g *Gateway) Fail(method string, err error) {
	g.Handle(method, func(map[string]any) (any, error) { return nil, err })
}

// Unavailable makes method fail with kodi.ErrUnavailable.
func (g *Gateway) Unavailable(method string) {
	g.Fail(method, fmt.Errorf("%w: %s: connection refused", kodi.ErrUnavailable, method))
}

// Call implements kodi.Gateway.
func (g *Gateway) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decoded := map[string]any{}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, err
		}
	}

	g.mu.Lock()
	g.calls = append(g.calls, Call{Method: method, Params: decoded})
	h, ok := g.handlers[method]
	g.mu.Unlock()

	if !ok {
		return nil, &kodi.RPCError{Method: method, Code: -32601, Message: "Method not found."}
	}
	result, err := h(decoded)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}

// Calls returns every recorded call.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// CallsTo returns the recorded calls of method.
func (g *Gateway) CallsTo(method string) []Call {
	var out []Call
	for _, c := range g.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times method was called.
func (g *Gateway) Count(method string) int {
	return len(g.CallsTo(method))
}

// Reset forgets recorded calls.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = nil
}

// Int reads a numeric parameter.
func Int(params map[string]any, key string) int {
	f, _ := params[key].(float64)
	return int(f)
}
