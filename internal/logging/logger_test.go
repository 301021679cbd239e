// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARNING", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("sensor", "kms_p_main").Msg("refreshed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["sensor"] != "kms_p_main" {
		t.Errorf("sensor field = %v", entry["sensor"])
	}
	if entry["message"] != "refreshed" {
		t.Errorf("message field = %v", entry["message"])
	}
}

func TestCtxAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-1")

	Ctx(ctx).Info().Msg("hello")

	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("request id missing from %q", buf.String())
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("empty context should have no request id")
	}
}

func TestSlogHandlerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf)))

	logger.WithGroup("supervisor").With("service", "sensor-engine").Warn("restarting", "attempt", 2)

	out := buf.String()
	for _, want := range []string{`"supervisor.service":"sensor-engine"`, `"supervisor.attempt":2`, `"level":"warn"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %q", want, out)
		}
	}
}
