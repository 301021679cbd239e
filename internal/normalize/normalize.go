// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package normalize converts raw Kodi result records into canonical result
// items.
//
// Every item carries an object_type discriminator. Image references are
// resolved to absolute URLs, genre lists are flattened, ratings are rendered
// with a star and runtimes are expressed in whole minutes.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Item is one canonical result item.
type Item map[string]any

// TypeKey is the discriminator key present on every Item.
const TypeKey = "object_type"

// Media types as reported by Kodi, plus the detail types used for grouped
// search results.
const (
	TypeAddon        = "addon"
	TypeAlbum        = "album"
	TypeAlbumDetail  = "albumdetail"
	TypeArtist       = "artist"
	TypeChannel      = "channel"
	TypeEpisode      = "episode"
	TypeMovie        = "movie"
	TypeMusicVideo   = "musicvideo"
	TypeSeason       = "season"
	TypeSeasonDetail = "seasondetail"
	TypeSong         = "song"
	TypeTVShow       = "tvshow"
	TypeTVShowDetail = "tvshowdetail"
	TypeFile         = "file"
	TypeItem         = "item"
)

// Result keys in the order they are read from a response.
var resultKeys = []string{
	"addons", "albums", "albumdetails", "artists", "channels", "episodes", "movies",
	"musicvideos", "seasons", "seasondetails", "songs", "tvshows", "tvshowdetails",
	"items", "files",
}

var keyTypes = map[string]string{
	"addons":        TypeAddon,
	"albums":        TypeAlbum,
	"albumdetails":  TypeAlbumDetail,
	"artists":       TypeArtist,
	"channels":      TypeChannel,
	"episodes":      TypeEpisode,
	"movies":        TypeMovie,
	"musicvideos":   TypeMusicVideo,
	"seasons":       TypeSeason,
	"seasondetails": TypeSeasonDetail,
	"songs":         TypeSong,
	"tvshows":       TypeTVShow,
	"tvshowdetails": TypeTVShowDetail,
	"items":         TypeItem,
	"files":         TypeFile,
}

// DefaultType returns the media type stamped on records found under key.
func DefaultType(key string) (string, bool) {
	t, ok := keyTypes[key]
	return t, ok
}

// isSingle reports whether key holds one object rather than a list.
func isSingle(key string) bool {
	return key == "albumdetails" || key == "tvshowdetails"
}

// ImageResolver resolves Kodi image references. *kodi.ImageResolver
// satisfies it.
type ImageResolver interface {
	Thumbnail(raw string) string
	ArtURL(raw string) string
}

// Normalizer formats raw records.
type Normalizer struct {
	images ImageResolver
}

// New creates a Normalizer.
func New(images ImageResolver) *Normalizer {
	return &Normalizer{images: images}
}

// Images returns the resolver used for thumbnails and art.
func (n *Normalizer) Images() ImageResolver {
	return n.images
}

// Result decodes a raw JSON-RPC result and normalizes every record found
// under a known result key. Unknown keys (limits, paging) are ignored.
func (n *Normalizer) Result(raw json.RawMessage) ([]Item, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	var items []Item
	for _, key := range resultKeys {
		value, ok := body[key]
		if !ok {
			continue
		}
		decoded, err := n.Key(key, value)
		if err != nil {
			return nil, err
		}
		items = append(items, decoded...)
	}
	return items, nil
}

// Key normalizes the value found under one result key.
func (n *Normalizer) Key(key string, value json.RawMessage) ([]Item, error) {
	category, ok := DefaultType(key)
	if !ok {
		return nil, fmt.Errorf("unknown result key %q", key)
	}
	if isSingle(key) {
		var record map[string]any
		if err := json.Unmarshal(value, &record); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if record == nil {
			return nil, nil
		}
		return []Item{n.Item(record, category)}, nil
	}

	var records []map[string]any
	if err := json.Unmarshal(value, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	items := make([]Item, 0, len(records))
	for _, record := range records {
		items = append(items, n.Item(record, category))
	}
	return items, nil
}

// Item normalizes one record in place and returns it as an Item.
// category is the default media type for records lacking their own.
func (n *Normalizer) Item(record map[string]any, category string) Item {
	item := Item(record)

	objectType := category
	if t, ok := item["type"].(string); ok && t != "" {
		objectType = t
	}
	delete(item, "type")
	item[TypeKey] = objectType

	if genre, ok := item["genre"]; ok {
		item["genre"] = JoinList(genre, ", ")
	}

	if th, ok := item["thumbnail"]; ok {
		s, _ := th.(string)
		if s == "" {
			delete(item, "thumbnail")
		} else {
			item["thumbnail"] = n.images.Thumbnail(s)
		}
	}

	if art, ok := item["art"].(map[string]any); ok {
		fanartKey := "fanart"
		if category == TypeSeasonDetail {
			fanartKey = "tvshow.fanart"
		}
		if s, _ := art[fanartKey].(string); s != "" {
			item["fanart"] = n.images.ArtURL(s)
		}
		if s, _ := art["poster"].(string); s != "" {
			item["poster"] = n.images.ArtURL(s)
		}
	}
	delete(item, "art")

	if r, ok := item["rating"]; ok {
		if stars, ok := FormatRating(r); ok {
			item["rating"] = stars
		} else {
			delete(item, "rating")
		}
	}

	for _, key := range []string{"runtime", "duration"} {
		if v, ok := item[key]; ok {
			if secs, ok := toFloat(v); ok {
				item[key] = Minutes(secs)
			}
		}
	}

	return item
}

// FormatRating renders a non-zero rating rounded to one decimal with a
// leading star. A zero or non-numeric rating yields false.
func FormatRating(v any) (string, bool) {
	r, ok := toFloat(v)
	if !ok {
		return "", false
	}
	r = math.Round(r*10) / 10
	if r == 0 {
		return "", false
	}
	return "★ " + strconv.FormatFloat(r, 'f', 1, 64), true
}

// Minutes converts seconds to whole minutes, discarding the remainder.
func Minutes(seconds float64) int {
	return int(seconds) / 60
}

// JoinList joins a list of strings with sep. Strings pass through and
// anything else renders empty.
func JoinList(v any, sep string) string {
	switch list := v.(type) {
	case string:
		return list
	case []string:
		return strings.Join(list, sep)
	case []any:
		parts := make([]string, 0, len(list))
		for _, p := range list {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, sep)
	default:
		return ""
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Int reads an integer-valued field.
func Int(item map[string]any, key string) (int, bool) {
	f, ok := toFloat(item[key])
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Clone returns a shallow copy of item.
func (i Item) Clone() Item {
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// Type returns the object_type of the item.
func (i Item) Type() string {
	t, _ := i[TypeKey].(string)
	return t
}
