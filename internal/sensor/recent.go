// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/mediasensors/internal/normalize"
)

// Id prefixes of the recently-added sensors.
const (
	RecentEpisodesPrefix = "kms_t_"
	RecentMoviesPrefix   = "kms_m_"
)

// Recently-added defaults.
const (
	DefaultRecentLimit           = 20
	DefaultRecentRefreshInterval = 300 * time.Second
)

// RecentOptions configures a recently-added sensor.
type RecentOptions struct {
	Limit           int
	HideWatched     bool
	RefreshInterval time.Duration
}

func (o RecentOptions) withDefaults() RecentOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultRecentLimit
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = DefaultRecentRefreshInterval
	}
	return o
}

type recentKind struct {
	method     string
	resultKey  string
	properties []string
	cards      func(n *normalize.Normalizer, records []map[string]any, hideWatched bool) []normalize.Item
	opts       RecentOptions
}

// NewRecentEpisodes creates the recently-added episodes sensor.
func NewRecentEpisodes(uniqueID string, deps Deps, opts RecentOptions) *Sensor {
	r := &recentKind{
		method:     "VideoLibrary.GetRecentlyAddedEpisodes",
		resultKey:  "episodes",
		properties: PropsRecentEpisodes,
		cards:      (*normalize.Normalizer).EpisodeCards,
		opts:       opts.withDefaults(),
	}
	return r.sensor(KindRecentEpisodes, RecentEpisodesPrefix+uniqueID, deps)
}

// NewRecentMovies creates the recently-added movies sensor.
func NewRecentMovies(uniqueID string, deps Deps, opts RecentOptions) *Sensor {
	r := &recentKind{
		method:     "VideoLibrary.GetRecentlyAddedMovies",
		resultKey:  "movies",
		properties: PropsRecentMovies,
		cards:      (*normalize.Normalizer).MovieCards,
		opts:       opts.withDefaults(),
	}
	return r.sensor(KindRecentMovies, RecentMoviesPrefix+uniqueID, deps)
}

func (r *recentKind) sensor(kind, id string, deps Deps) *Sensor {
	caps := newCapabilities(kind, ClassifyRecent)
	caps.refreshAll = r.refreshAll
	caps.tick = r.tick
	return newSensor(id, caps, deps, r.opts.RefreshInterval)
}

func (r *recentKind) refreshAll(ctx context.Context, s *Sensor, eventID string) error {
	raw, err := s.deps.Gateway.Call(ctx, r.method, map[string]any{
		"properties": r.properties,
		"limits":     limits(r.opts.Limit, false),
	})
	if err != nil {
		return err
	}

	recs, err := records(raw, r.resultKey)
	if err != nil {
		return fmt.Errorf("%s: %w", r.method, err)
	}

	cards := r.cards(s.deps.Normalizer, recs, r.opts.HideWatched)
	if len(cards) <= 1 {
		// Only the header template is left.
		cards = nil
	}
	s.meta = s.newMeta(eventID)
	s.setItems(cards, r.opts.RefreshInterval)
	return nil
}

// tick refreshes when the player is on and the last result set has aged
// out of the refresh window.
func (r *recentKind) tick(ctx context.Context, s *Sensor) bool {
	if s.playerOff {
		return false
	}
	if s.deps.Cache.Fresh(s.id, s.deps.Now()) {
		return false
	}
	return s.refresh(ctx, r.refreshAll, "refresh interval")
}
