// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import "context"

// Sensor kinds.
const (
	KindPlaylist       = "playlist"
	KindRecentMovies   = "recently_added_movies"
	KindRecentEpisodes = "recently_added_episodes"
	KindSearch         = "search"
)

type commandFunc func(ctx context.Context, s *Sensor, a args) (dirty bool, err error)

// capabilities is what distinguishes one sensor kind from another: its
// classifier table, its queries and the commands it accepts. Each sensor
// gets its own instance so per-kind state never leaks between sensors.
type capabilities struct {
	kind     string
	classify Classifier

	refreshAll  func(ctx context.Context, s *Sensor, eventID string) error
	refreshMeta func(ctx context.Context, s *Sensor, eventID string) error
	tick        func(ctx context.Context, s *Sensor) bool

	commands     map[string]commandFunc
	commandOrder []string
}

func newCapabilities(kind string, classify Classifier) *capabilities {
	c := &capabilities{
		kind:     kind,
		classify: classify,
		commands: make(map[string]commandFunc),
	}
	c.register(CommandClear, commandClearResults)
	return c
}

func (c *capabilities) register(name string, fn commandFunc) {
	if _, exists := c.commands[name]; !exists {
		c.commandOrder = append(c.commandOrder, name)
	}
	c.commands[name] = fn
}

// Command names.
const (
	CommandClear       = "clear"
	CommandGoto        = "goto"
	CommandRemove      = "remove"
	CommandMove        = "move"
	CommandMoveTo      = "moveto"
	CommandSearch      = "search"
	CommandPlay        = "play"
	CommandAdd         = "add"
	CommandResetAddons = "reset_addons"
)

// commandClearResults drops items and starts a fresh meta record. It always
// reports a change, even when the sensor was already empty.
func commandClearResults(_ context.Context, s *Sensor, _ args) (bool, error) {
	state := StateEmpty
	if s.playerOff {
		state = StateOffline
	}
	s.clear(state, s.newMeta("clear"))
	return true, nil
}

// failed degrades the sensor after a gateway error inside a command. The
// error is not returned to the caller.
func failed(s *Sensor, err error) (bool, error) {
	s.degrade(err)
	return true, nil
}
