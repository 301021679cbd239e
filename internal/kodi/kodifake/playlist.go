// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package kodifake

import (
	"errors"
	"sync"

	"github.com/tomtom215/mediasensors/internal/kodi"
)

// PlaylistItem is one entry of a simulated playlist.
type PlaylistItem struct {
	ID    int
	Type  string
	Title string
}

// Player simulates Kodi's player and playlist methods: GetActivePlayers,
// GetProperties, GetItem, GoTo, Open and Playlist GetItems/Remove/Insert.
type Player struct {
	mu        sync.Mutex
	Active    bool
	PlayerID  int
	Type      string
	Speed     int
	Current   int // index into the playlist of the playing item
	Playlists map[int][]PlaylistItem
	nextID    int
}

// NewPlayer installs the simulated player on g.
func NewPlayer(g *Gateway) *Player {
	p := &Player{Playlists: map[int][]PlaylistItem{}, Speed: 1, nextID: 1000}
	g.Handle("Player.GetActivePlayers", p.activePlayers)
	g.Handle("Player.GetProperties", p.properties)
	g.Handle("Player.GetItem", p.item)
	g.Handle("Player.GoTo", p.goTo)
	g.Handle("Player.Open", p.open)
	g.Handle("Playlist.GetItems", p.getItems)
	g.Handle("Playlist.Remove", p.remove)
	g.Handle("Playlist.Insert", p.insert)
	return p
}

// Set replaces playlist id with items.
func (p *Player) Set(playlistID int, items []PlaylistItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Playlists[playlistID] = append([]PlaylistItem(nil), items...)
}

// Items returns a copy of playlist id.
func (p *Player) Items(playlistID int) []PlaylistItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PlaylistItem(nil), p.Playlists[playlistID]...)
}

// Play marks the player active on playlistID at index current.
func (p *Player) Play(playlistID int, playerType string, current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Active = true
	p.PlayerID = playlistID
	p.Type = playerType
	p.Current = current
}

var errBadPosition = &kodi.RPCError{Code: -32602, Message: "Invalid params."}

func (p *Player) activePlayers(map[string]any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.Active {
		return []any{}, nil
	}
	return []map[string]any{{"playerid": p.PlayerID, "type": p.Type}}, nil
}

func (p *Player) properties(map[string]any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]any{"speed": p.Speed}, nil
}

func (p *Player) item(map[string]any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.Playlists[p.PlayerID]
	if !p.Active || p.Current < 0 || p.Current >= len(list) {
		return map[string]any{"item": map[string]any{"label": "", "type": "unknown"}}, nil
	}
	it := list[p.Current]
	return map[string]any{"item": map[string]any{
		"id":    it.ID,
		"type":  it.Type,
		"title": it.Title,
		"file":  "/media/" + it.Title,
	}}, nil
}

func (p *Player) goTo(params map[string]any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	to := Int(params, "to")
	if to < 0 || to >= len(p.Playlists[p.PlayerID]) {
		return nil, errBadPosition
	}
	p.Current = to
	return "OK", nil
}

func (p *Player) open(params map[string]any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	item, _ := params["item"].(map[string]any)
	if _, ok := item["channelid"]; ok {
		p.Active = true
		return "OK", nil
	}
	id := Int(item, "playlistid")
	pos := Int(item, "position")
	if pos < 0 || pos >= len(p.Playlists[id]) {
		return nil, errBadPosition
	}
	p.Active = true
	p.PlayerID = id
	p.Current = pos
	return "OK", nil
}

func (p *Player) getItems(params map[string]any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := Int(params, "playlistid")
	list := p.Playlists[id]
	items := make([]map[string]any, 0, len(list))
	for _, it := range list {
		items = append(items, map[string]any{"id": it.ID, "type": it.Type, "title": it.Title, "label": it.Title})
	}
	return map[string]any{
		"items":  items,
		"limits": map[string]any{"start": 0, "end": len(items), "total": len(items)},
	}, nil
}

func (p *Player) remove(params map[string]any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := Int(params, "playlistid")
	pos := Int(params, "position")
	list := p.Playlists[id]
	if pos < 0 || pos >= len(list) {
		return nil, errBadPosition
	}
	p.Playlists[id] = append(list[:pos:pos], list[pos+1:]...)
	return "OK", nil
}

func (p *Player) insert(params map[string]any) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := Int(params, "playlistid")
	pos := Int(params, "position")
	list := p.Playlists[id]
	if pos < 0 || pos > len(list) {
		return nil, errBadPosition
	}
	item, _ := params["item"].(map[string]any)
	entry, err := p.resolve(item)
	if err != nil {
		return nil, err
	}
	out := make([]PlaylistItem, 0, len(list)+1)
	out = append(out, list[:pos]...)
	out = append(out, entry)
	out = append(out, list[pos:]...)
	p.Playlists[id] = out
	return "OK", nil
}

func (p *Player) resolve(item map[string]any) (PlaylistItem, error) {
	for _, key := range []struct{ tag, typ string }{
		{"songid", "song"}, {"movieid", "movie"}, {"episodeid", "episode"},
		{"albumid", "album"}, {"channelid", "channel"}, {"itemid", "unknown"},
	} {
		if _, ok := item[key.tag]; ok {
			id := Int(item, key.tag)
			return PlaylistItem{ID: id, Type: key.typ, Title: key.typ}, nil
		}
	}
	return PlaylistItem{}, errors.New("kodifake: insert without a known id tag")
}
