// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package websocket

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/metrics"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// startHub runs a hub until the test ends.
func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func createTestClient(hub *Hub, buffer int) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, buffer)}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	checks := []struct {
		name  string
		check bool
	}{
		{"clients map", hub.clients != nil},
		{"broadcast channel", hub.broadcast != nil},
		{"Register channel", hub.Register != nil},
		{"Unregister channel", hub.Unregister != nil},
		{"empty clients", len(hub.clients) == 0},
		{"broadcast capacity", cap(hub.broadcast) == broadcastBuffer},
	}
	for _, c := range checks {
		if !c.check {
			t.Errorf("%s: check failed", c.name)
		}
	}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := startHub(t)
	client := createTestClient(hub, 4)

	hub.Register <- client
	waitFor(t, func() bool { return hub.GetClientCount() == 1 }, "client registered")
	if got := testutil.ToFloat64(metrics.WebSocketConnections); got != 1 {
		t.Errorf("websocket_connections_active = %v, want 1", got)
	}

	hub.Unregister <- client
	waitFor(t, func() bool { return hub.GetClientCount() == 0 }, "client unregistered")

	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestHub_UnregisterUnknownClient(t *testing.T) {
	hub := startHub(t)
	hub.Unregister <- createTestClient(hub, 1)
	waitFor(t, func() bool { return hub.GetClientCount() == 0 }, "count stays zero")
}

func TestHub_BroadcastSensorUpdate(t *testing.T) {
	hub := startHub(t)
	a := createTestClient(hub, 4)
	b := createTestClient(hub, 4)
	hub.Register <- a
	hub.Register <- b
	waitFor(t, func() bool { return hub.GetClientCount() == 2 }, "clients registered")

	hub.BroadcastJSON(MessageTypeSensorUpdated, map[string]string{"id": "kms_p_"})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		if msg.Type != MessageTypeSensorUpdated {
			t.Errorf("client %d: type = %q, want %q", c.id, msg.Type, MessageTypeSensorUpdated)
		}
	}
}

func TestHub_BroadcastRaw(t *testing.T) {
	hub := startHub(t)
	c := createTestClient(hub, 4)
	hub.Register <- c
	waitFor(t, func() bool { return hub.GetClientCount() == 1 }, "client registered")

	hub.BroadcastRaw([]byte(`{"id":"kodi_media_sensor_search","state":"ONLINE"}`))
	msg := receive(t, c)
	if msg.Type != MessageTypeSensorUpdated {
		t.Fatalf("type = %q", msg.Type)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want map", msg.Data)
	}
	if data["state"] != "ONLINE" {
		t.Errorf("state = %v, want ONLINE", data["state"])
	}

	// Invalid payloads are dropped.
	hub.BroadcastRaw([]byte(`not json`))
	hub.BroadcastJSON(MessageTypeSensorUpdated, "marker")
	if msg := receive(t, c); msg.Data != "marker" {
		t.Errorf("expected marker after invalid payload, got %v", msg.Data)
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub()
	slow := createTestClient(hub, 1)
	fast := createTestClient(hub, 4)
	hub.clients[slow] = true
	hub.clients[fast] = true

	hub.broadcastToClients(Message{Type: MessageTypeSensorUpdated, Data: 1})
	hub.broadcastToClients(Message{Type: MessageTypeSensorUpdated, Data: 2})

	if hub.GetClientCount() != 1 {
		t.Fatalf("clients = %d, want 1", hub.GetClientCount())
	}
	if !hub.clients[fast] {
		t.Error("fast client should remain registered")
	}
	if len(fast.send) != 2 {
		t.Errorf("fast client buffered %d messages, want 2", len(fast.send))
	}
}

func TestHub_BroadcastChannelFull(t *testing.T) {
	hub := NewHub()
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.BroadcastJSON(MessageTypeSensorUpdated, i)
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("broadcast queue = %d, want %d", len(hub.broadcast), broadcastBuffer)
	}
}

func TestHub_ConcurrentBroadcasts(t *testing.T) {
	hub := startHub(t)
	c := createTestClient(hub, 256)
	hub.Register <- c
	waitFor(t, func() bool { return hub.GetClientCount() == 1 }, "client registered")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hub.BroadcastJSON(MessageTypeSensorUpdated, i)
		}(i)
	}
	wg.Wait()
	waitFor(t, func() bool { return len(c.send) == 10 }, "all broadcasts delivered")
}

func TestHub_RunWithContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
		want error
	}{
		{
			name: "canceled",
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				go func() {
					time.Sleep(20 * time.Millisecond)
					cancel()
				}()
				return ctx, cancel
			},
			want: context.Canceled,
		},
		{
			name: "deadline",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), 30*time.Millisecond)
			},
			want: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub()
			ctx, cancel := tt.ctx()
			defer cancel()

			client := createTestClient(hub, 1)
			errCh := make(chan error, 1)
			go func() { errCh <- hub.RunWithContext(ctx) }()
			hub.Register <- client

			select {
			case err := <-errCh:
				if !errors.Is(err, tt.want) {
					t.Errorf("err = %v, want %v", err, tt.want)
				}
			case <-time.After(time.Second):
				t.Fatal("RunWithContext did not return")
			}
			if hub.GetClientCount() != 0 {
				t.Errorf("clients not closed on shutdown: %d", hub.GetClientCount())
			}
			if _, ok := <-client.send; ok {
				t.Error("client send channel should be closed")
			}
		})
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()

	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled: got %q", got)
	}
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline: got %q", got)
	}
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{Type: MessageTypeSensorUpdated, Data: map[string]string{"id": "x"}})
	if err != nil {
		t.Fatalf("MarshalMessage: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != MessageTypeSensorUpdated {
		t.Errorf("type = %v", decoded["type"])
	}
}

func TestHub_JoinAfterStop(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	client := createTestClient(hub, 1)
	if !hub.Join(client) {
		t.Fatal("Join on a running hub returned false")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("RunWithContext() = %v", err)
	}

	if hub.Join(createTestClient(hub, 2)) {
		t.Error("Join on a stopped hub returned true")
	}

	left := make(chan struct{})
	go func() {
		hub.leave(client)
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Error("leave blocked on a stopped hub")
	}
}
