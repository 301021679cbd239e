// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediasensors/internal/cache"
	"github.com/tomtom215/mediasensors/internal/fanout"
	"github.com/tomtom215/mediasensors/internal/kodi/kodifake"
	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/normalize"
	"github.com/tomtom215/mediasensors/internal/sensor"
	"github.com/tomtom215/mediasensors/internal/websocket"
)

func init() {
	logging.SetLogger(logging.NewTestLogger(io.Discard))
}

type testImages struct{}

func (testImages) Thumbnail(raw string) string { return "http://kodi/thumb/" + raw }
func (testImages) ArtURL(raw string) string    { return "http://kodi/art/" + raw }

type testEnv struct {
	gw       *kodifake.Gateway
	registry *sensor.Registry
	hub      *websocket.Hub
	handler  http.Handler
}

// newTestEnv registers a running playlist and search sensor behind a full
// router. Rate limiting is disabled.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gw := kodifake.New("kodi.test:8080")
	gw.Respond("JSONRPC.Ping", "pong")

	deps := sensor.Deps{
		Gateway:      gw,
		Normalizer:   normalize.New(testImages{}),
		Cache:        cache.New(),
		Notifier:     fanout.New(),
		KodiEntityID: "media_player.kodi",
	}

	registry := sensor.NewRegistry()
	for _, s := range []*sensor.Sensor{
		sensor.NewPlaylist("", deps),
		sensor.NewSearch("", deps, sensor.SearchOptions{}),
	} {
		if err := registry.Add(s); err != nil {
			t.Fatalf("Add(%s): %v", s.ID(), err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	for _, s := range registry.All() {
		go func(s *sensor.Sensor) { _ = s.Run(ctx) }(s)
	}

	hub := websocket.NewHub()
	go func() { _ = hub.RunWithContext(ctx) }()

	mwConfig := DefaultChiMiddlewareConfig()
	mwConfig.RateLimitDisabled = true
	mwConfig.CORSAllowedOrigins = []string{"http://dashboard.local"}

	handler := NewHandler(HandlerConfig{
		Registry:    registry,
		Gateway:     gw,
		Hub:         hub,
		CORSOrigins: mwConfig.CORSAllowedOrigins,
	})

	return &testEnv{
		gw:       gw,
		registry: registry,
		hub:      hub,
		handler:  NewRouter(handler, NewChiMiddleware(mwConfig)).Setup(),
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: invalid JSON body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, resp
}

// dataMap re-decodes resp.Data into a generic map.
func dataMap(t *testing.T, resp APIResponse) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("data is not an object: %s", raw)
	}
	return out
}

func TestListSensors(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/sensors", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !resp.Success {
		t.Error("expected success")
	}
	if resp.Meta == nil || resp.Meta.Count == nil || *resp.Meta.Count != 2 {
		t.Errorf("meta count = %+v, want 2", resp.Meta)
	}

	items, ok := resp.Data.([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("data = %#v, want 2 sensors", resp.Data)
	}
	first := items[0].(map[string]interface{})
	if first["id"] != sensor.PlaylistPrefix || first["kind"] != sensor.KindPlaylist || first["state"] != string(sensor.StateOffline) {
		t.Errorf("first sensor = %v", first)
	}
}

func TestGetSensor(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"existing sensor", "/api/v1/sensors/" + sensor.SearchID, http.StatusOK, ""},
		{"unknown sensor", "/api/v1/sensors/kms_p_nope", http.StatusNotFound, ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := env.do(t, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
				}
				return
			}
			data := dataMap(t, resp)
			if data["id"] != sensor.SearchID {
				t.Errorf("id = %v", data["id"])
			}
			attrs, ok := data["attributes"].(map[string]interface{})
			if !ok {
				t.Fatalf("attributes missing: %v", data)
			}
			if meta, ok := attrs["meta"].([]interface{}); !ok || len(meta) != 1 {
				t.Errorf("meta = %v, want one record", attrs["meta"])
			}
			if items, ok := attrs["data"].([]interface{}); !ok || len(items) != 0 {
				t.Errorf("data = %v, want empty list", attrs["data"])
			}
		})
	}
}

func TestListCommands(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/sensors/"+sensor.PlaylistPrefix+"/commands", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	commands, _ := dataMap(t, resp)["commands"].([]interface{})
	want := map[string]bool{sensor.CommandClear: false, sensor.CommandGoto: false, sensor.CommandMove: false}
	for _, c := range commands {
		if _, ok := want[c.(string)]; ok {
			want[c.(string)] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("command %q missing from %v", name, commands)
		}
	}
}

func TestExecuteCommand(t *testing.T) {
	env := newTestEnv(t)
	env.gw.Unavailable("Player.GoTo")

	playlist := "/api/v1/sensors/" + sensor.PlaylistPrefix + "/commands"

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
		wantState  sensor.State
	}{
		{
			name:       "clear while player is off",
			path:       playlist,
			body:       `{"command":"clear"}`,
			wantStatus: http.StatusOK,
			wantState:  sensor.StateOffline,
		},
		{
			name:       "gateway failure degrades instead of failing",
			path:       playlist,
			body:       `{"command":"goto","args":{"playerid":1,"position":2}}`,
			wantStatus: http.StatusOK,
			wantState:  sensor.StateDegraded,
		},
		{
			name:       "missing argument",
			path:       playlist,
			body:       `{"command":"goto","args":{"position":2}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidArguments,
		},
		{
			name:       "command not supported by kind",
			path:       playlist,
			body:       `{"command":"search","args":{"media_type":"all","value":"x"}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeUnknownCommand,
		},
		{
			name:       "empty command",
			path:       playlist,
			body:       `{"args":{}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidationFailed,
		},
		{
			name:       "malformed command name",
			path:       playlist,
			body:       `{"command":"Drop Table"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidationFailed,
		},
		{
			name:       "malformed body",
			path:       playlist,
			body:       `{"command":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "unknown sensor",
			path:       "/api/v1/sensors/kms_m_missing/commands",
			body:       `{"command":"clear"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := env.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
				}
				return
			}
			if got := dataMap(t, resp)["state"]; got != string(tt.wantState) {
				t.Errorf("state = %v, want %s", got, tt.wantState)
			}
		})
	}
}

func TestExecuteCommandStoppedSensor(t *testing.T) {
	gw := kodifake.New("kodi.test:8080")
	registry := sensor.NewRegistry()
	s := sensor.NewPlaylist("", sensor.Deps{Gateway: gw, Normalizer: normalize.New(testImages{}), Cache: cache.New()})
	_ = registry.Add(s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = s.Run(ctx); close(done) }()
	cancel()
	<-done

	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	router := NewRouter(NewHandler(HandlerConfig{Registry: registry, Gateway: gw}), NewChiMiddleware(mw)).Setup()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sensors/"+sensor.PlaylistPrefix+"/commands",
		bytes.NewBufferString(`{"command":"clear"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRequestIDPropagatesToResponse(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sensors/missing", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID header = %q", got)
	}
	var resp APIResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error == nil || resp.Error.RequestID != "req-123" {
		t.Errorf("error request id = %+v", resp.Error)
	}
}
