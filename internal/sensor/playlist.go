// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediasensors/internal/kodi"
)

// PlaylistPrefix prefixes playlist sensor ids.
const PlaylistPrefix = "kms_p_"

// playlistKind mirrors the playlist of the active player.
type playlistKind struct {
	playlistID int
}

// NewPlaylist creates the active-playlist sensor.
func NewPlaylist(uniqueID string, deps Deps) *Sensor {
	p := &playlistKind{playlistID: -1}

	caps := newCapabilities(KindPlaylist, ClassifyPlaylist)
	caps.refreshAll = p.refreshAll
	caps.refreshMeta = p.refreshMeta
	caps.register(CommandGoto, p.goTo)
	caps.register(CommandRemove, p.remove)
	caps.register(CommandMove, p.move)
	caps.register(CommandMoveTo, p.move)

	return newSensor(PlaylistPrefix+uniqueID, caps, deps, 0)
}

func (p *playlistKind) refreshAll(ctx context.Context, s *Sensor, eventID string) error {
	if _, err := p.loadMeta(ctx, s, eventID); err != nil {
		return err
	}
	return p.loadItems(ctx, s)
}

// refreshMeta reloads identity and position. Items are only reloaded when
// the active playlist itself changed.
func (p *playlistKind) refreshMeta(ctx context.Context, s *Sensor, eventID string) error {
	changed, err := p.loadMeta(ctx, s, eventID)
	if err != nil {
		return err
	}
	if changed {
		return p.loadItems(ctx, s)
	}
	return nil
}

func (p *playlistKind) loadMeta(ctx context.Context, s *Sensor, eventID string) (bool, error) {
	players, err := kodi.ActivePlayers(ctx, s.deps.Gateway)
	if err != nil {
		return false, err
	}

	meta := s.newMeta(eventID)
	playlistID := -1
	if len(players) == 1 {
		player := players[0]
		playlistID = player.PlayerID
		meta.Add("playlist_id", player.PlayerID)
		meta.Add("playlist_type", player.Type)

		raw, err := s.deps.Gateway.Call(ctx, "Player.GetItem", map[string]any{
			"playerid":   player.PlayerID,
			"properties": []string{"file"},
		})
		if err != nil {
			return false, err
		}
		var playing struct {
			Item struct {
				ID   *int   `json:"id"`
				File string `json:"file"`
			} `json:"item"`
		}
		if err := json.Unmarshal(raw, &playing); err != nil {
			return false, fmt.Errorf("decode playing item: %w", err)
		}
		if playing.Item.ID != nil {
			meta.Add("currently_playing", *playing.Item.ID)
		} else {
			s.log.Debug().Msg("No id defined for the playing item")
		}
		if playing.Item.File != "" {
			meta.Add("currently_playing_file", playing.Item.File)
		}
	}

	changed := playlistID != p.playlistID
	p.playlistID = playlistID
	s.meta = meta
	return changed, nil
}

func (p *playlistKind) loadItems(ctx context.Context, s *Sensor) error {
	if p.playlistID < 0 {
		s.setItems(nil, 0)
		return nil
	}
	raw, err := s.deps.Gateway.Call(ctx, "Playlist.GetItems", map[string]any{
		"properties": PropsItem,
		"playlistid": p.playlistID,
		"limits":     limits(0, true),
	})
	if err != nil {
		return err
	}
	items, err := s.deps.Normalizer.Result(raw)
	if err != nil {
		return err
	}
	s.setItems(items, 0)
	s.log.Debug().Int("items", len(items)).Msg("Playlist loaded")
	return nil
}

func (p *playlistKind) goTo(ctx context.Context, s *Sensor, a args) (bool, error) {
	playerID, err := a.requiredInt("playerid")
	if err != nil {
		return false, err
	}
	key := "position"
	if !a.has(key) {
		key = "to"
	}
	to, err := a.requiredInt(key)
	if err != nil {
		return false, err
	}
	if to < 0 {
		return false, usageErrorf(a.command, "position must not be negative, got %d", to)
	}

	if _, err := s.deps.Gateway.Call(ctx, "Player.GoTo", map[string]any{"playerid": playerID, "to": to}); err != nil {
		return failed(s, err)
	}
	return false, nil
}

func (p *playlistKind) remove(ctx context.Context, s *Sensor, a args) (bool, error) {
	playlistID, err := a.requiredInt("playlistid")
	if err != nil {
		return false, err
	}
	position, err := a.requiredInt("position")
	if err != nil {
		return false, err
	}
	if position < 0 {
		return false, usageErrorf(a.command, "position must not be negative, got %d", position)
	}

	if _, err := s.deps.Gateway.Call(ctx, "Playlist.Remove", map[string]any{"playlistid": playlistID, "position": position}); err != nil {
		return failed(s, err)
	}
	// Kodi fires no event for playlist edits.
	return s.refresh(ctx, p.refreshAll, "remove"), nil
}

func (p *playlistKind) move(ctx context.Context, s *Sensor, a args) (bool, error) {
	playlistID, err := a.requiredInt("playlistid")
	if err != nil {
		return false, err
	}
	from, err := a.requiredInt(firstKey(a, "position_from", "from"))
	if err != nil {
		return false, err
	}
	to, err := a.requiredInt(firstKey(a, "position_to", "to"))
	if err != nil {
		return false, err
	}
	if from < 0 || to < 0 {
		return false, usageErrorf(a.command, "positions must not be negative, got %d -> %d", from, to)
	}

	raw, err := s.deps.Gateway.Call(ctx, "Playlist.GetItems", map[string]any{
		"properties": PropsItemLight,
		"playlistid": playlistID,
		"limits":     limits(0, true),
	})
	if err != nil {
		return failed(s, err)
	}
	var light struct {
		Items []struct {
			ID   *int   `json:"id"`
			Type string `json:"type"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &light); err != nil {
		return failed(s, fmt.Errorf("decode playlist: %w", err))
	}
	if from >= len(light.Items) {
		return false, usageErrorf(a.command, "position_from %d outside playlist of %d items", from, len(light.Items))
	}
	if to >= len(light.Items) {
		return false, usageErrorf(a.command, "position_to %d outside playlist of %d items", to, len(light.Items))
	}
	origin := light.Items[from]
	if origin.ID == nil {
		return false, usageErrorf(a.command, "item at %d has no library id and cannot be moved", from)
	}

	if _, err := s.deps.Gateway.Call(ctx, "Playlist.Remove", map[string]any{"playlistid": playlistID, "position": from}); err != nil {
		return failed(s, err)
	}
	_, err = s.deps.Gateway.Call(ctx, "Playlist.Insert", map[string]any{
		"playlistid": playlistID,
		"position":   to,
		"item":       map[string]any{idTag(origin.Type): *origin.ID},
	})
	if err != nil {
		return failed(s, err)
	}
	return s.refresh(ctx, p.refreshAll, "move"), nil
}

// idTag is the Playlist.Insert key for a playlist item of the given type.
func idTag(itemType string) string {
	switch itemType {
	case "song":
		return "songid"
	case "movie":
		return "movieid"
	default:
		return "itemid"
	}
}

func firstKey(a args, keys ...string) string {
	for _, k := range keys {
		if a.has(k) {
			return k
		}
	}
	return keys[0]
}
