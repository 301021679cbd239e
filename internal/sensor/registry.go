// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"fmt"
	"sync"

	"github.com/tomtom215/mediasensors/internal/models"
)

// Registry indexes the sensors of a process by id, in registration order.
type Registry struct {
	mu      sync.RWMutex
	sensors map[string]*Sensor
	order   []*Sensor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sensors: make(map[string]*Sensor)}
}

// Add registers s. Ids must be unique.
func (r *Registry) Add(s *Sensor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sensors[s.ID()]; exists {
		return fmt.Errorf("duplicate sensor id %q", s.ID())
	}
	r.sensors[s.ID()] = s
	r.order = append(r.order, s)
	return nil
}

// Get returns the sensor with the given id.
func (r *Registry) Get(id string) (*Sensor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sensors[id]
	return s, ok
}

// All returns the sensors in registration order.
func (r *Registry) All() []*Sensor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Sensor(nil), r.order...)
}

// Infos lists id, kind and state of every sensor.
func (r *Registry) Infos() []Info {
	all := r.All()
	out := make([]Info, len(all))
	for i, s := range all {
		out[i] = s.Info()
	}
	return out
}

// Len returns the number of registered sensors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Deliver hands ev to every sensor. It is the tracker subscription.
func (r *Registry) Deliver(ev models.LifecycleEvent) {
	for _, s := range r.All() {
		s.Deliver(ev)
	}
}

// Tick asks every sensor for a keep-alive check.
func (r *Registry) Tick() {
	for _, s := range r.All() {
		s.Tick()
	}
}
