// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package normalize

import (
	"fmt"
	"strings"

	"github.com/tomtom215/mediasensors/internal/logging"
)

// TypeCardHeader marks the leading template entry of a card list.
const TypeCardHeader = "card_header"

// Recently-added card layouts. The first entry of a card list tells the
// dashboard card which fields go on which line.
var (
	episodeCardHeader = Item{
		TypeKey:         TypeCardHeader,
		"title_default": "$title",
		"line1_default": "$episode",
		"line2_default": "$release",
		"line3_default": "$rating - $runtime",
		"line4_default": "$number",
		"icon":          "mdi:eye-off",
	}
	movieCardHeader = Item{
		TypeKey:         TypeCardHeader,
		"title_default": "$title",
		"line1_default": "$genres",
		"line2_default": "$release",
		"line3_default": "$rating - $runtime",
		"line4_default": "$studio",
		"icon":          "mdi:eye-off",
	}
)

var (
	episodeRequired = []string{"dateadded", "title", "playcount", "season", "episode", "runtime", "showtitle", "rating", "art"}
	movieRequired   = []string{"premiered", "dateadded", "playcount", "genre", "rating", "runtime", "title", "studio", "art"}
)

// EpisodeCards builds the recently-added episode card list.
func (n *Normalizer) EpisodeCards(records []map[string]any, hideWatched bool) []Item {
	cards := []Item{episodeCardHeader.Clone()}
	for _, show := range records {
		if hideWatched && watched(show) {
			continue
		}
		if missing := firstMissing(show, episodeRequired); missing != "" {
			logging.Warn().Str("key", missing).Interface("item", show).Msg("Skipping recently added episode with missing key")
			continue
		}
		season, _ := Int(show, "season")
		episode, _ := Int(show, "episode")
		playcount, _ := Int(show, "playcount")
		runtime, _ := toFloat(show["runtime"])

		card := Item{
			TypeKey:   TypeEpisode,
			"airdate": airdate(show["dateadded"]),
			"episode": show["title"],
			"fanart":  "",
			"flag":    playcount == 0,
			"genres":  "",
			"number":  fmt.Sprintf("S%02dE%02d", season, episode),
			"poster":  "",
			"release": "$day, $date",
			"runtime": Minutes(runtime),
			"title":   show["showtitle"],
			"studio":  "",
		}
		if stars, ok := FormatRating(show["rating"]); ok {
			card["rating"] = stars
		}
		art, _ := show["art"].(map[string]any)
		if s, _ := art["tvshow.fanart"].(string); s != "" {
			card["fanart"] = n.images.ArtURL(s)
		}
		if s, _ := art["tvshow.poster"].(string); s != "" {
			card["poster"] = n.images.ArtURL(s)
		}
		cards = append(cards, card)
	}
	return cards
}

// MovieCards builds the recently-added movie card list.
func (n *Normalizer) MovieCards(records []map[string]any, hideWatched bool) []Item {
	cards := []Item{movieCardHeader.Clone()}
	for _, movie := range records {
		if hideWatched && watched(movie) {
			continue
		}
		if missing := firstMissing(movie, movieRequired); missing != "" {
			logging.Warn().Str("key", missing).Interface("item", movie).Msg("Skipping recently added movie with missing key")
			continue
		}
		playcount, _ := Int(movie, "playcount")
		runtime, _ := toFloat(movie["runtime"])

		card := Item{
			TypeKey:   TypeMovie,
			"aired":   movie["premiered"],
			"airdate": airdate(movie["dateadded"]),
			"flag":    playcount == 0,
			"genres":  JoinList(movie["genre"], ","),
			"release": "$date",
			"runtime": Minutes(runtime),
			"title":   movie["title"],
			"studio":  JoinList(movie["studio"], ","),
			"fanart":  "",
			"poster":  "",
		}
		if stars, ok := FormatRating(movie["rating"]); ok {
			card["rating"] = stars
		}
		art, _ := movie["art"].(map[string]any)
		if s, _ := art["fanart"].(string); s != "" {
			card["fanart"] = n.images.ArtURL(s)
		}
		if s, _ := art["poster"].(string); s != "" {
			card["poster"] = n.images.ArtURL(s)
		}
		cards = append(cards, card)
	}
	return cards
}

func watched(record map[string]any) bool {
	pc, ok := Int(record, "playcount")
	return ok && pc > 0
}

func firstMissing(record map[string]any, keys []string) string {
	for _, k := range keys {
		if _, ok := record[k]; !ok {
			return k
		}
	}
	return ""
}

// airdate turns Kodi's "2024-01-02 10:11:12" into "2024-01-02T10:11:12Z".
func airdate(v any) string {
	s, _ := v.(string)
	return strings.ReplaceAll(s, " ", "T") + "Z"
}
