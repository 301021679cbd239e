// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/mediasensors/internal/normalize"
)

// State is the lifecycle state of a sensor.
type State string

const (
	StateOffline  State = "OFFLINE"
	StateOnline   State = "ONLINE"
	StateDegraded State = "DEGRADED"
	StateEmpty    State = "EMPTY"
)

// gaugeValue is the value exported on the sensor state gauge.
func (s State) gaugeValue() float64 {
	switch s {
	case StateOnline:
		return 1
	case StateEmpty:
		return 2
	case StateDegraded:
		return 3
	default:
		return 0
	}
}

// ServiceDomain is stamped on every meta record.
const ServiceDomain = "kodi_media_sensors"

// Meta is the metadata record of a sensor. It is replaced on every
// resynchronization and otherwise only extended.
type Meta map[string]any

// Add sets one key.
func (m Meta) Add(key string, value any) {
	m[key] = value
}

func (m Meta) clone() Meta {
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// UpdateTime renders t as YYYYMMDDhhmmss followed by six digits of
// microseconds.
func UpdateTime(t time.Time) string {
	return t.Format("20060102150405") + fmt.Sprintf("%06d", t.Nanosecond()/int(time.Microsecond))
}

// Attributes is the externally visible payload of a sensor. Meta is a
// one-element list so that an empty record still renders as [{}].
type Attributes struct {
	Meta []Meta           `json:"meta"`
	Data []normalize.Item `json:"data"`
}

// Command is a user-initiated operation.
type Command struct {
	Name string         `json:"command" validate:"required,max=64"`
	Args map[string]any `json:"args,omitempty"`
}

// Snapshot is what a sensor publishes after each dirty pass.
type Snapshot struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	State      State      `json:"state"`
	Attributes Attributes `json:"attributes"`
	At         time.Time  `json:"at"`
}

// Info is the short listing form of a sensor.
type Info struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	State State  `json:"state"`
}

// args wraps command arguments with typed accessors. A nested "item" map
// is merged into the top level.
type args struct {
	command string
	raw     map[string]any
	values  map[string]any
}

func newArgs(cmd Command) args {
	values := make(map[string]any, len(cmd.Args))
	for k, v := range cmd.Args {
		values[k] = v
	}
	if item, ok := values["item"].(map[string]any); ok {
		delete(values, "item")
		for k, v := range item {
			if _, exists := values[k]; !exists {
				values[k] = v
			}
		}
	}
	return args{command: cmd.Name, raw: cmd.Args, values: values}
}

func (a args) has(key string) bool {
	v, ok := a.values[key]
	return ok && v != nil
}

func (a args) str(key string) string {
	switch v := a.values[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// int reads key as an integer. A missing key yields def.
func (a args) int(key string, def int) (int, error) {
	v, ok := a.values[key]
	if !ok || v == nil {
		return def, nil
	}
	n, ok := toInt(v)
	if !ok {
		return 0, usageErrorf(a.command, "%s must be an integer, got %v", key, v)
	}
	return n, nil
}

// requiredInt reads key as an integer and fails when it is missing.
func (a args) requiredInt(key string) (int, error) {
	if !a.has(key) {
		return 0, usageErrorf(a.command, "%s is required", key)
	}
	return a.int(key, 0)
}

// ints reads key as one integer or a list of integers.
func (a args) ints(key string) ([]int, error) {
	v := a.values[key]
	if list, ok := v.([]any); ok {
		out := make([]int, 0, len(list))
		for _, e := range list {
			n, ok := toInt(e)
			if !ok {
				return nil, usageErrorf(a.command, "%s must contain integers, got %v", key, e)
			}
			out = append(out, n)
		}
		return out, nil
	}
	if list, ok := v.([]int); ok {
		return append([]int(nil), list...), nil
	}
	n, ok := toInt(v)
	if !ok {
		return nil, usageErrorf(a.command, "%s must be an integer, got %v", key, v)
	}
	return []int{n}, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
