// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package events

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/goccy/go-json"
	"go.uber.org/goleak"

	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/sensor"
)

type fakeBroadcaster struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (b *fakeBroadcaster) BroadcastRaw(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, append([]byte(nil), data...))
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.payloads)
}

func TestNewForwarderValidation(t *testing.T) {
	if _, err := NewForwarder(nil, &fakeBroadcaster{}, nil); err == nil {
		t.Error("expected error for nil bus")
	}
	if _, err := NewForwarder(NewBus(DefaultBusConfig(), nil), nil, nil); err == nil {
		t.Error("expected error for nil broadcaster")
	}
}

func TestForwarderRelaysSensorUpdates(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	bus := NewBus(DefaultBusConfig(), nil)
	out := &fakeBroadcaster{}
	fwd, err := NewForwarder(bus, out, nil)
	if err != nil {
		t.Fatalf("NewForwarder: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- fwd.Serve(ctx) }()

	// Messages published before the subscription exists are dropped, so
	// keep publishing until one arrives.
	deadline := time.Now().Add(2 * time.Second)
	for out.count() == 0 && time.Now().Before(deadline) {
		bus.SensorDirty(ctx, testSnapshot("kodi_media_sensor_search", sensor.StateOnline))
		time.Sleep(10 * time.Millisecond)
	}
	if out.count() == 0 {
		t.Fatal("no update forwarded")
	}

	out.mu.Lock()
	var snap sensor.Snapshot
	err = json.Unmarshal(out.payloads[0], &snap)
	out.mu.Unlock()
	if err != nil {
		t.Fatalf("payload is not a snapshot: %v", err)
	}
	if snap.ID != "kodi_media_sensor_search" {
		t.Errorf("forwarded id = %q", snap.ID)
	}
	if fwd.Forwarded() < 1 {
		t.Errorf("Forwarded() = %d", fwd.Forwarded())
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not stop")
	}
	if err := bus.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestForwarderStopsWhenBusCloses(t *testing.T) {
	bus := NewBus(DefaultBusConfig(), nil)
	fwd, _ := NewForwarder(bus, &fakeBroadcaster{}, nil)
	_ = bus.Close()

	if err := fwd.Serve(context.Background()); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Serve on closed bus = %v, want ErrBusClosed", err)
	}
}

func TestZerologAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewZerologAdapterWithLogger(logging.NewTestLogger(&buf)).
		With(watermill.LogFields{"topic": TopicSensorUpdated})

	adapter.Error("publish failed", errors.New("boom"), watermill.LogFields{"sensor": "kms_p_"})

	var entry map[string]interface{}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, line)
	}
	want := map[string]interface{}{
		"level":   "error",
		"error":   "boom",
		"topic":   TopicSensorUpdated,
		"sensor":  "kms_p_",
		"message": "publish failed",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}
