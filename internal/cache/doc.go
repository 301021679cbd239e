// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package cache is the freshness gate for sensor result sets.

Sensors keep their own items; an entry only records when the result set
was produced and the keep-alive
window it is valid for. The window is clamped to MaxKeepAlive; a window of
zero means the entry is never fresh, which the search sensor interprets as
"replay the last search on every tick".

# Usage

	c := cache.New()
	c.Put("kodi_media_sensor_search", 300*time.Second, time.Now())

	if !c.Fresh("kodi_media_sensor_search", time.Now()) {
	    // clear or replay
	}

# Thread Safety

All methods are safe for concurrent use. In practice each entry is only
written by its owning sensor's goroutine while the HTTP layer reads stats.
*/
package cache
