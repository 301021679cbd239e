// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediasensors/internal/kodi"
	"github.com/tomtom215/mediasensors/internal/normalize"
)

// SearchID is the id of the search sensor. A unique id is appended when
// more than one Kodi instance is configured.
const SearchID = "kodi_media_sensor_search"

// Search limits.
const (
	MaxSearchLimit         = 100
	DefaultSearchKeepAlive = 300 * time.Second
)

// Search categories accepted by the search command.
const (
	SearchAll    = "all"
	SearchRecent = "recent"
	SearchArtist = "artist"
	SearchTVShow = "tvshow"
)

// SearchLimits caps every search category. A zero limit skips the category.
type SearchLimits struct {
	Songs         int
	Albums        int
	Artists       int
	Movies        int
	TVShows       int
	Episodes      int
	MusicVideos   int
	ChannelsTV    int
	ChannelsRadio int

	RecentSongs       int
	RecentAlbums      int
	RecentMovies      int
	RecentMusicVideos int
	RecentEpisodes    int
	PlayedSongs       int
	PlayedAlbums      int
}

// DefaultSearchLimits returns the stock limits.
func DefaultSearchLimits() SearchLimits {
	return SearchLimits{
		Songs:             15,
		Albums:            10,
		Artists:           10,
		Movies:            5,
		TVShows:           5,
		Episodes:          5,
		MusicVideos:       10,
		ChannelsTV:        10,
		ChannelsRadio:     5,
		RecentSongs:       20,
		RecentAlbums:      20,
		RecentMovies:      20,
		RecentMusicVideos: 20,
		RecentEpisodes:    20,
		PlayedSongs:       10,
		PlayedAlbums:      10,
	}
}

// SearchOptions configures the search sensor.
type SearchOptions struct {
	Limits SearchLimits

	// KeepAlive is how long results are kept before the sensor clears
	// itself. Zero keeps results forever and replays the last search on
	// every tick.
	KeepAlive time.Duration
}

// category is one library query of a search.
type category struct {
	name     string
	method   string
	key      string
	itemType string
	props    []string
	sort     string
	filter   string
	limit    int
	enrich   bool
	channels string
}

type searchKind struct {
	all    []category
	recent []category

	pvrProbed    bool
	canSearchPVR bool
}

// NewSearch creates the search sensor.
func NewSearch(uniqueID string, deps Deps, opts SearchOptions) *Sensor {
	id := SearchID
	if uniqueID != "" {
		id += "_" + uniqueID
	}

	l := clampLimits(opts.Limits)
	k := &searchKind{
		all: []category{
			{name: "songs", method: "AudioLibrary.GetSongs", key: "songs", itemType: normalize.TypeSong, props: PropsSong, sort: "track", filter: "title", limit: l.Songs},
			{name: "albums", method: "AudioLibrary.GetAlbums", key: "albums", itemType: normalize.TypeAlbum, props: PropsAlbum, sort: "title", filter: "album", limit: l.Albums},
			{name: "artists", method: "AudioLibrary.GetArtists", key: "artists", itemType: normalize.TypeArtist, props: PropsArtist, sort: "title", filter: "artist", limit: l.Artists},
			{name: "movies", method: "VideoLibrary.GetMovies", key: "movies", itemType: normalize.TypeMovie, props: PropsMovie, sort: "title", filter: "title", limit: l.Movies},
			{name: "tvshows", method: "VideoLibrary.GetTVShows", key: "tvshows", itemType: normalize.TypeTVShow, props: PropsTVShow, sort: "title", filter: "title", limit: l.TVShows},
			{name: "episodes", method: "VideoLibrary.GetEpisodes", key: "episodes", itemType: normalize.TypeEpisode, props: PropsEpisode, sort: "title", filter: "title", limit: l.Episodes, enrich: true},
			{name: "musicvideos", method: "VideoLibrary.GetMusicVideos", key: "musicvideos", itemType: normalize.TypeMusicVideo, props: PropsMusicVideos, sort: "title", filter: "title", limit: l.MusicVideos},
			{name: "channels_tv", method: "PVR.GetChannels", key: "channels", itemType: normalize.TypeChannel, props: PropsChannel, limit: l.ChannelsTV, channels: "alltv"},
			{name: "channels_radio", method: "PVR.GetChannels", key: "channels", itemType: normalize.TypeChannel, props: PropsChannel, limit: l.ChannelsRadio, channels: "allradio"},
		},
		recent: []category{
			{name: "recent_songs", method: "AudioLibrary.GetRecentlyAddedSongs", key: "songs", itemType: normalize.TypeSong, props: PropsSong, limit: l.RecentSongs},
			{name: "recent_albums", method: "AudioLibrary.GetRecentlyAddedAlbums", key: "albums", itemType: normalize.TypeAlbum, props: PropsAlbum, limit: l.RecentAlbums},
			{name: "recent_movies", method: "VideoLibrary.GetRecentlyAddedMovies", key: "movies", itemType: normalize.TypeMovie, props: PropsMovie, limit: l.RecentMovies},
			{name: "recent_musicvideos", method: "VideoLibrary.GetRecentlyAddedMusicVideos", key: "musicvideos", itemType: normalize.TypeMusicVideo, props: PropsMusicVideos, limit: l.RecentMusicVideos},
			{name: "recent_episodes", method: "VideoLibrary.GetRecentlyAddedEpisodes", key: "episodes", itemType: normalize.TypeEpisode, props: PropsEpisode, limit: l.RecentEpisodes, enrich: true},
			{name: "played_songs", method: "AudioLibrary.GetRecentlyPlayedSongs", key: "songs", itemType: normalize.TypeSong, props: PropsSong, limit: l.PlayedSongs},
			{name: "played_albums", method: "AudioLibrary.GetRecentlyPlayedAlbums", key: "albums", itemType: normalize.TypeAlbum, props: PropsAlbum, limit: l.PlayedAlbums},
		},
	}

	caps := newCapabilities(KindSearch, ClassifySearch)
	caps.refreshAll = k.refreshAll
	caps.refreshMeta = k.refreshMeta
	caps.tick = k.tick
	caps.register(CommandSearch, k.search)
	caps.register(CommandPlay, k.play)
	caps.register(CommandAdd, k.add)
	caps.register(CommandResetAddons, k.resetAddons)

	return newSensor(id, caps, deps, opts.KeepAlive)
}

func clampLimits(l SearchLimits) SearchLimits {
	for _, p := range []*int{
		&l.Songs, &l.Albums, &l.Artists, &l.Movies, &l.TVShows, &l.Episodes, &l.MusicVideos,
		&l.ChannelsTV, &l.ChannelsRadio, &l.RecentSongs, &l.RecentAlbums, &l.RecentMovies,
		&l.RecentMusicVideos, &l.RecentEpisodes, &l.PlayedSongs, &l.PlayedAlbums,
	} {
		switch {
		case *p < 0:
			*p = 0
		case *p > MaxSearchLimit:
			*p = MaxSearchLimit
		}
	}
	return l
}

// errEmptyQuery marks a search without a value. Nothing changes.
var errEmptyQuery = errors.New("empty search value")

// refreshMeta starts a fresh meta record. Results survive playback
// changes; they are only dropped by clear or keep-alive expiry.
func (k *searchKind) refreshMeta(_ context.Context, s *Sensor, eventID string) error {
	s.meta = s.newMeta(eventID)
	return nil
}

// refreshAll replays the last search, if any.
func (k *searchKind) refreshAll(ctx context.Context, s *Sensor, eventID string) error {
	last, ok := lastSearch(s)
	if !ok {
		return k.refreshMeta(ctx, s, eventID)
	}
	err := k.run(ctx, s, newArgs(Command{Name: CommandSearch, Args: last}))
	if errors.Is(err, errEmptyQuery) {
		return nil
	}
	return err
}

func lastSearch(s *Sensor) (map[string]any, bool) {
	method, _ := s.meta["method"].(string)
	if method != CommandSearch {
		return nil, false
	}
	last, _ := s.meta["args"].(map[string]any)
	return last, true
}

func (k *searchKind) tick(ctx context.Context, s *Sensor) bool {
	if s.keepAlive == 0 {
		if _, ok := lastSearch(s); !ok {
			return false
		}
		s.log.Debug().Msg("Replaying search")
		return s.refresh(ctx, k.refreshAll, "keep alive replay")
	}

	entry, ok := s.deps.Cache.Get(s.id)
	if !ok || entry.Stamp.IsZero() {
		return false
	}
	if s.deps.Now().Sub(entry.Stamp) <= s.keepAlive {
		return false
	}
	state := StateEmpty
	if s.playerOff {
		state = StateOffline
	}
	s.clear(state, s.newMeta("keep alive expired"))
	s.log.Debug().Dur("keep_alive", s.keepAlive).Msg("Search results expired")
	return true
}

func (k *searchKind) search(ctx context.Context, s *Sensor, a args) (bool, error) {
	err := k.run(ctx, s, a)
	switch {
	case errors.Is(err, errEmptyQuery):
		return false, nil
	case IsUsageError(err):
		return false, err
	case err != nil:
		return failed(s, err)
	}
	s.settle()
	return true, nil
}

// run executes a search. When at least one category answered, the
// aggregate replaces the result set even if other categories failed; the
// failures are then reported as the returned error.
func (k *searchKind) run(ctx context.Context, s *Sensor, a args) error {
	mediaType := a.str(firstKey(a, "media_type", "category"))
	valueKey := firstKey(a, "value", "query")

	var (
		items    []normalize.Item
		failures int
		attempts int
		lastErr  error
	)

	switch mediaType {
	case SearchAll:
		query := strings.TrimSpace(a.str(valueKey))
		if !k.pvrProbed {
			k.probe(ctx, s)
		}
		if query == "" {
			s.log.Warn().Msg("Search called with an empty value")
			return errEmptyQuery
		}
		for _, c := range k.all {
			if c.limit == 0 || (c.channels != "" && !k.canSearchPVR) {
				continue
			}
			attempts++
			found, err := k.query(ctx, s, c, query)
			if err != nil {
				failures++
				lastErr = err
				s.log.Warn().Err(err).Str("category", c.name).Msg("Search category failed")
				continue
			}
			items = append(items, found...)
		}

	case SearchRecent:
		for _, c := range k.recent {
			if c.limit == 0 {
				continue
			}
			attempts++
			found, err := k.query(ctx, s, c, "")
			if err != nil {
				failures++
				lastErr = err
				s.log.Warn().Err(err).Str("category", c.name).Msg("Search category failed")
				continue
			}
			items = append(items, found...)
		}

	case SearchArtist, SearchTVShow:
		if a.str(valueKey) == "" {
			s.log.Warn().Str("media_type", mediaType).Msg("Search called with an empty value")
			return errEmptyQuery
		}
		id, err := a.requiredInt(valueKey)
		if err != nil {
			return err
		}
		attempts = 1
		if mediaType == SearchArtist {
			items, err = k.artist(ctx, s, id)
		} else {
			items, err = k.tvshow(ctx, s, id)
		}
		if err != nil {
			failures, lastErr = 1, err
		}

	case "":
		return usageErrorf(a.command, "media_type is required")
	default:
		return usageErrorf(a.command, "unsupported media type %q", mediaType)
	}

	if attempts > 0 && failures == attempts {
		return lastErr
	}

	meta := s.newMeta("search")
	meta.Add("method", CommandSearch)
	meta.Add("args", a.raw)
	meta.Add("search", "true")
	s.meta = meta
	s.setItems(items, s.keepAlive)
	s.log.Debug().Str("media_type", mediaType).Int("items", len(items)).Msg("Search done")

	if failures > 0 {
		return fmt.Errorf("%d of %d search categories failed: %w", failures, attempts, lastErr)
	}
	return nil
}

// query runs one category and normalizes at most c.limit records.
func (k *searchKind) query(ctx context.Context, s *Sensor, c category, value string) ([]normalize.Item, error) {
	params := map[string]any{"properties": c.props}
	if c.channels != "" {
		params["channelgroupid"] = c.channels
	} else {
		params["limits"] = limits(c.limit, false)
	}
	if c.sort != "" {
		params["sort"] = sortBy(c.sort)
	}
	if c.filter != "" {
		params["filter"] = contains(c.filter, value)
	}

	raw, err := s.deps.Gateway.Call(ctx, c.method, params)
	if err != nil {
		return nil, err
	}
	recs, err := records(raw, c.key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.method, err)
	}

	if c.channels != "" {
		recs = matchLabel(recs, value)
	}
	if len(recs) > c.limit {
		recs = recs[:c.limit]
	}
	if c.enrich {
		enrichEpisodes(ctx, s, recs)
	}

	items := make([]normalize.Item, 0, len(recs))
	for _, rec := range recs {
		items = append(items, s.deps.Normalizer.Item(rec, c.itemType))
	}
	return items, nil
}

// matchLabel keeps channels whose label contains value, ignoring case.
func matchLabel(recs []map[string]any, value string) []map[string]any {
	needle := strings.ToLower(value)
	out := recs[:0]
	for _, rec := range recs {
		label, _ := rec["label"].(string)
		if strings.Contains(strings.ToLower(label), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// enrichEpisodes adds the show title and genre to each episode. A failed
// lookup leaves the episode without those fields.
func enrichEpisodes(ctx context.Context, s *Sensor, episodes []map[string]any) {
	shows := make(map[int]map[string]any)
	for _, ep := range episodes {
		showID, ok := normalize.Int(ep, "tvshowid")
		if !ok {
			continue
		}
		show, seen := shows[showID]
		if !seen {
			raw, err := s.deps.Gateway.Call(ctx, "VideoLibrary.GetTVShowDetails", map[string]any{
				"properties": []string{"title", "genre"},
				"tvshowid":   showID,
			})
			if err == nil {
				show, err = record(raw, "tvshowdetails")
			}
			if err != nil {
				s.log.Warn().Err(err).Int("tvshowid", showID).Msg("TV show lookup failed")
				show = nil
			}
			shows[showID] = show
		}
		if show == nil {
			continue
		}
		if title, ok := show["title"].(string); ok && title != "" {
			ep["tvshowtitle"] = title
		}
		if genre := normalize.JoinList(show["genre"], ", "); genre != "" {
			ep["genre"] = genre
		}
	}
}

// artist returns every song of an artist grouped by album. Songs without
// an album stay at the top level ahead of the albums.
func (k *searchKind) artist(ctx context.Context, s *Sensor, artistID int) ([]normalize.Item, error) {
	raw, err := s.deps.Gateway.Call(ctx, "AudioLibrary.GetSongs", map[string]any{
		"properties": PropsSong,
		"limits":     limits(0, true),
		"sort":       sortBy("track"),
		"filter":     map[string]any{"artistid": artistID},
	})
	if err != nil {
		return nil, err
	}
	songs, err := records(raw, "songs")
	if err != nil {
		return nil, fmt.Errorf("AudioLibrary.GetSongs: %w", err)
	}

	n := s.deps.Normalizer
	var (
		loose  []normalize.Item
		order  []int
		albums = make(map[int][]normalize.Item)
	)
	for _, song := range songs {
		albumID, ok := normalize.Int(song, "albumid")
		item := n.Item(song, normalize.TypeSong)
		if !ok || albumID == 0 {
			loose = append(loose, item)
			continue
		}
		if _, seen := albums[albumID]; !seen {
			order = append(order, albumID)
		}
		albums[albumID] = append(albums[albumID], item)
	}

	items := loose
	for _, albumID := range order {
		album := map[string]any{"type": normalize.TypeAlbumDetail}
		raw, err := s.deps.Gateway.Call(ctx, "AudioLibrary.GetAlbumDetails", map[string]any{
			"properties": PropsAlbumDetail,
			"albumid":    albumID,
		})
		if err == nil {
			var detail map[string]any
			if detail, err = record(raw, "albumdetails"); err == nil {
				album = detail
				album["type"] = normalize.TypeAlbumDetail
			}
		}
		if err != nil {
			s.log.Warn().Err(err).Int("albumid", albumID).Msg("Album lookup failed")
		}
		album["albumid"] = albumID
		album["songs"] = albums[albumID]
		items = append(items, n.Item(album, normalize.TypeAlbumDetail))
	}
	return items, nil
}

// tvshow returns the seasons of a show, each with its episodes.
func (k *searchKind) tvshow(ctx context.Context, s *Sensor, showID int) ([]normalize.Item, error) {
	raw, err := s.deps.Gateway.Call(ctx, "VideoLibrary.GetSeasons", map[string]any{
		"properties": PropsSeason,
		"limits":     limits(0, true),
		"sort":       sortBy("season"),
		"tvshowid":   showID,
	})
	if err != nil {
		return nil, err
	}
	seasons, err := records(raw, "seasons")
	if err != nil {
		return nil, fmt.Errorf("VideoLibrary.GetSeasons: %w", err)
	}

	n := s.deps.Normalizer
	items := make([]normalize.Item, 0, len(seasons))
	for _, season := range seasons {
		number, _ := normalize.Int(season, "season")
		raw, err := s.deps.Gateway.Call(ctx, "VideoLibrary.GetEpisodes", map[string]any{
			"properties": PropsEpisode,
			"limits":     limits(0, true),
			"sort":       sortBy("episode"),
			"tvshowid":   showID,
			"season":     number,
		})
		var episodes []map[string]any
		if err == nil {
			episodes, err = records(raw, "episodes")
		}
		if err != nil {
			s.log.Warn().Err(err).Int("tvshowid", showID).Int("season", number).Msg("Episode lookup failed")
		} else {
			eps := make([]normalize.Item, 0, len(episodes))
			for _, ep := range episodes {
				eps = append(eps, n.Item(ep, normalize.TypeEpisode))
			}
			season["episodes"] = eps
		}
		season["type"] = normalize.TypeSeasonDetail
		items = append(items, n.Item(season, normalize.TypeSeasonDetail))
	}
	return items, nil
}

// probe checks for an enabled PVR add-on. A failed probe is retried on the
// next search.
func (k *searchKind) probe(ctx context.Context, s *Sensor) {
	raw, err := s.deps.Gateway.Call(ctx, "Addons.GetAddons", map[string]any{
		"type":       "kodi.pvrclient",
		"properties": PropsAddons,
	})
	var addons []map[string]any
	if err == nil {
		addons, err = records(raw, "addons")
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("PVR add-on probe failed")
		return
	}

	k.pvrProbed = true
	k.canSearchPVR = false
	for _, addon := range addons {
		if enabled, _ := addon["enabled"].(bool); enabled {
			k.canSearchPVR = true
			break
		}
	}
	if k.canSearchPVR {
		s.log.Info().Msg("PVR add-on found, searching channels too")
	} else {
		s.log.Info().Msg("No PVR add-on found, channels are not searched")
	}
}

func (k *searchKind) resetAddons(ctx context.Context, s *Sensor, _ args) (bool, error) {
	k.pvrProbed = false
	k.canSearchPVR = false
	k.probe(ctx, s)
	return false, nil
}

// itemRef is one library reference of a play or add command.
type itemRef struct {
	key      string
	ids      []int
	playlist int
}

var refKeys = []struct {
	key      string
	playlist int
}{
	{"songid", PlaylistAudio},
	{"albumid", PlaylistAudio},
	{"movieid", PlaylistVideo},
	{"episodeid", PlaylistVideo},
	{"channelid", PlaylistVideo},
}

// refs parses every library reference in a before anything is sent to
// Kodi.
func refs(a args) ([]itemRef, error) {
	var out []itemRef
	for _, rk := range refKeys {
		if !a.has(rk.key) {
			continue
		}
		ids, err := a.ints(rk.key)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, usageErrorf(a.command, "%s is empty", rk.key)
		}
		out = append(out, itemRef{key: rk.key, ids: ids, playlist: rk.playlist})
	}
	if len(out) == 0 {
		return nil, usageErrorf(a.command, "one of songid, albumid, movieid, episodeid or channelid is required")
	}
	return out, nil
}

// insert adds the ids of ref consecutively from position and returns how
// many were inserted.
func insert(ctx context.Context, gw kodi.Gateway, ref itemRef, position int) (int, error) {
	for i, id := range ref.ids {
		_, err := gw.Call(ctx, "Playlist.Insert", map[string]any{
			"playlistid": ref.playlist,
			"position":   position + i,
			"item":       map[string]any{ref.key: id},
		})
		if err != nil {
			return i, err
		}
	}
	return len(ref.ids), nil
}

func (k *searchKind) play(ctx context.Context, s *Sensor, a args) (bool, error) {
	references, err := refs(a)
	if err != nil {
		return false, err
	}

	gw := s.deps.Gateway
	for _, ref := range references {
		if ref.key == "channelid" {
			if len(ref.ids) != 1 {
				return false, usageErrorf(a.command, "exactly one channelid can be played")
			}
			if _, err := gw.Call(ctx, "Player.Open", map[string]any{"item": map[string]any{"channelid": ref.ids[0]}}); err != nil {
				return failed(s, err)
			}
			continue
		}

		idx, err := nextPosition(ctx, gw, ref.playlist)
		if err != nil {
			return failed(s, err)
		}
		if _, err := insert(ctx, gw, ref, idx); err != nil {
			return failed(s, err)
		}
		_, err = gw.Call(ctx, "Player.Open", map[string]any{
			"item": map[string]any{"playlistid": ref.playlist, "position": idx},
		})
		if err != nil {
			return failed(s, err)
		}
	}
	return false, nil
}

// nextPosition picks where play inserts on playlistID:
//   - no active player: PlayPosition
//   - one player on playlistID: right after the playing item
//   - otherwise: the end of playlistID
func nextPosition(ctx context.Context, gw kodi.Gateway, playlistID int) (int, error) {
	players, err := kodi.ActivePlayers(ctx, gw)
	if err != nil {
		return 0, err
	}
	if len(players) == 0 {
		return PlayPosition, nil
	}

	items, err := playlistIDs(ctx, gw, playlistID)
	if err != nil {
		return 0, err
	}
	if len(players) != 1 || players[0].PlayerID != playlistID {
		return len(items), nil
	}

	raw, err := gw.Call(ctx, "Player.GetItem", map[string]any{
		"playerid":   playlistID,
		"properties": []string{},
	})
	if err != nil {
		return 0, err
	}
	var playing struct {
		Item struct {
			ID *int `json:"id"`
		} `json:"item"`
	}
	if err := json.Unmarshal(raw, &playing); err != nil {
		return 0, fmt.Errorf("decode playing item: %w", err)
	}
	if playing.Item.ID != nil {
		for pos, id := range items {
			if id != nil && *id == *playing.Item.ID {
				return pos + 1, nil
			}
		}
	}
	return len(items), nil
}

// playlistIDs lists the item ids of playlistID in order.
func playlistIDs(ctx context.Context, gw kodi.Gateway, playlistID int) ([]*int, error) {
	raw, err := gw.Call(ctx, "Playlist.GetItems", map[string]any{
		"playlistid": playlistID,
		"properties": PropsItemLight,
		"limits":     limits(0, true),
	})
	if err != nil {
		return nil, err
	}
	var list struct {
		Items []struct {
			ID *int `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode playlist: %w", err)
	}
	out := make([]*int, len(list.Items))
	for i, item := range list.Items {
		out[i] = item.ID
	}
	return out, nil
}

// DefaultAddPosition is where add inserts without an explicit position.
const DefaultAddPosition = 1

func (k *searchKind) add(ctx context.Context, s *Sensor, a args) (bool, error) {
	position, err := a.int("position", DefaultAddPosition)
	if err != nil {
		return false, err
	}
	if position < 0 {
		return false, usageErrorf(a.command, "position must not be negative, got %d", position)
	}
	references, err := refs(a)
	if err != nil {
		return false, err
	}

	inserted := 0
	var insertErr error
	for _, ref := range references {
		n, err := insert(ctx, s.deps.Gateway, ref, position)
		inserted += n
		if err != nil {
			insertErr = err
			break
		}
	}
	if inserted > 0 {
		s.notify("item_added")
	}
	if insertErr != nil {
		return failed(s, insertErr)
	}
	return false, nil
}
