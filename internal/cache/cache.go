// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package cache

import (
	"sync"
	"time"

	"github.com/tomtom215/mediasensors/internal/metrics"
)

// MaxKeepAlive is the upper bound of any freshness window.
const MaxKeepAlive = 1800 * time.Second

// Entry records when a sensor last produced its result set. The items
// themselves stay on the sensor.
type Entry struct {
	Stamp  time.Time
	Window time.Duration
}

// Fresh reports whether the entry is still within its window at now.
func (e Entry) Fresh(now time.Time) bool {
	if e.Window <= 0 || e.Stamp.IsZero() {
		return false
	}
	return now.Sub(e.Stamp) <= e.Window
}

// Cache maps sensor ids to the freshness of their last result set.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	stats   Stats
}

// Stats counts cache lookups.
type Stats struct {
	mu            sync.RWMutex
	Hits          int64
	Misses        int64
	Invalidations int64
	TotalKeys     int64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// ClampWindow bounds d to [0, MaxKeepAlive].
func ClampWindow(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxKeepAlive {
		return MaxKeepAlive
	}
	return d
}

// Put stamps sensorID as refreshed at now.
func (c *Cache) Put(sensorID string, window time.Duration, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[sensorID] = Entry{
		Stamp:  now,
		Window: ClampWindow(window),
	}

	c.stats.mu.Lock()
	c.stats.TotalKeys = int64(len(c.entries))
	c.stats.mu.Unlock()
}

// Get returns the entry for sensorID.
func (c *Cache) Get(sensorID string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[sensorID]
	c.mu.RUnlock()

	if ok {
		c.recordHit()
	} else {
		c.recordMiss()
	}
	return entry, ok
}

// Fresh reports whether sensorID has an entry inside its window at now.
func (c *Cache) Fresh(sensorID string, now time.Time) bool {
	entry, ok := c.Get(sensorID)
	return ok && entry.Fresh(now)
}

// Invalidate drops the entry for sensorID.
func (c *Cache) Invalidate(sensorID string) {
	c.mu.Lock()
	_, existed := c.entries[sensorID]
	delete(c.entries, sensorID)
	n := len(c.entries)
	c.mu.Unlock()

	c.stats.mu.Lock()
	if existed {
		c.stats.Invalidations++
	}
	c.stats.TotalKeys = int64(n)
	c.stats.mu.Unlock()
}

// GetStats returns a snapshot of the counters.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:          c.stats.Hits,
		Misses:        c.stats.Misses,
		Invalidations: c.stats.Invalidations,
		TotalKeys:     c.stats.TotalKeys,
	}
}

// HitRate returns the percentage of lookups that found an entry.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	metrics.ResultCacheHits.Inc()
}

func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
	metrics.ResultCacheMisses.Inc()
}
