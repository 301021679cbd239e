// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Property lists requested from Kodi per media type.
var (
	PropsSong        = []string{"title", "album", "albumid", "artist", "artistid", "track", "year", "duration", "genre", "thumbnail"}
	PropsAlbum       = []string{"thumbnail", "title", "year", "art", "genre", "artist", "artistid"}
	PropsArtist      = []string{"thumbnail", "mood", "genre", "style"}
	PropsMovie       = []string{"thumbnail", "title", "year", "art", "genre"}
	PropsTVShow      = []string{"title", "thumbnail", "playcount", "dateadded", "episode", "rating", "year", "season", "genre", "art"}
	PropsEpisode     = []string{"title", "rating", "episode", "season", "seasonid", "tvshowid", "thumbnail", "art"}
	PropsSeason      = []string{"season", "showtitle", "thumbnail", "title", "art"}
	PropsAlbumDetail = []string{"albumlabel", "artist", "year", "artistid", "thumbnail", "style", "genre", "title"}
	PropsItem        = []string{"album", "albumid", "artist", "artistid", "duration", "genre", "thumbnail", "title", "track", "year", "episode", "season", "art", "file"}
	PropsItemLight   = []string{"title"}
	PropsChannel     = []string{"uniqueid", "thumbnail", "channeltype", "channel", "channelnumber"}
	PropsMusicVideos = []string{"thumbnail", "title", "year", "artist", "album", "art", "genre"}
	PropsAddons      = []string{"enabled"}

	PropsRecentEpisodes = []string{"art", "dateadded", "episode", "fanart", "firstaired", "playcount", "rating", "runtime", "season", "showtitle", "title"}
	PropsRecentMovies   = []string{"art", "dateadded", "genre", "playcount", "premiered", "rating", "runtime", "studio", "title"}
)

// Kodi playlist ids.
const (
	PlaylistAudio = 0
	PlaylistVideo = 1
)

// PlayPosition is where play inserts when no player is active.
const PlayPosition = 0

func limits(limit int, unlimited bool) map[string]any {
	l := map[string]any{"start": 0}
	if !unlimited {
		l["end"] = limit
	}
	return l
}

func sortBy(method string) map[string]any {
	return map[string]any{"method": method, "order": "ascending", "ignorearticle": true}
}

func contains(field, value string) map[string]any {
	return map[string]any{"field": field, "operator": "contains", "value": value}
}

// records decodes the list found under key in a raw result. A missing key
// is an empty list.
func records(raw json.RawMessage, key string) ([]map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	value, ok := body[key]
	if !ok {
		return nil, nil
	}
	var out []map[string]any
	if err := json.Unmarshal(value, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// record decodes the single object found under key.
func record(raw json.RawMessage, key string) (map[string]any, error) {
	var body map[string]map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	out, ok := body[key]
	if !ok || out == nil {
		return nil, fmt.Errorf("result has no %s", key)
	}
	return out, nil
}
