// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package kodi

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

type scriptedGateway struct {
	id    string
	err   error
	calls int
}

func (g *scriptedGateway) ID() string { return g.id }

func (g *scriptedGateway) Call(context.Context, string, any) (json.RawMessage, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return json.RawMessage(`"pong"`), nil
}

func TestBreakerOpensOnTransportFailures(t *testing.T) {
	next := &scriptedGateway{id: "breaker-open:8080", err: fmt.Errorf("%w: refused", ErrUnavailable)}
	gw := NewBreakerGateway(next, BreakerConfig{MinRequests: 5, FailureRatio: 0.5, Timeout: time.Hour})

	for i := 0; i < 5; i++ {
		_, err := gw.Call(context.Background(), "JSONRPC.Ping", nil)
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d error = %v, want ErrUnavailable", i, err)
		}
	}

	_, err := gw.Call(context.Background(), "JSONRPC.Ping", nil)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen", err)
	}
	if next.calls != 5 {
		t.Errorf("underlying calls = %d, want 5", next.calls)
	}
	if gw.State() != "open" {
		t.Errorf("State() = %q, want open", gw.State())
	}
}

func TestBreakerIgnoresApplicationErrors(t *testing.T) {
	next := &scriptedGateway{id: "breaker-app:8080", err: &RPCError{Method: "Player.GoTo", Code: -32100, Message: "Failed to execute method."}}
	gw := NewBreakerGateway(next, BreakerConfig{MinRequests: 2, FailureRatio: 0.1})

	for i := 0; i < 10; i++ {
		_, err := gw.Call(context.Background(), "Player.GoTo", nil)
		if !IsApplicationError(err) {
			t.Fatalf("call %d error = %v, want application error", i, err)
		}
	}
	if gw.State() != "closed" {
		t.Errorf("State() = %q, want closed", gw.State())
	}
	if gw.ID() != "breaker-app:8080" {
		t.Errorf("ID() = %q", gw.ID())
	}
}
