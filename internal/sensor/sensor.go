// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package sensor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/mediasensors/internal/cache"
	"github.com/tomtom215/mediasensors/internal/fanout"
	"github.com/tomtom215/mediasensors/internal/kodi"
	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/metrics"
	"github.com/tomtom215/mediasensors/internal/models"
	"github.com/tomtom215/mediasensors/internal/normalize"
)

// DirtySink receives one snapshot per input that changed a sensor.
type DirtySink interface {
	SensorDirty(ctx context.Context, snap Snapshot)
}

// Notifier delivers fan-out events to sibling sensors.
type Notifier interface {
	Notify(source fanout.Receiver, event string) int
}

// Deps are the collaborators shared by all sensors of one Kodi instance.
type Deps struct {
	Gateway      kodi.Gateway
	Normalizer   *normalize.Normalizer
	Cache        *cache.Cache
	Notifier     Notifier
	Sink         DirtySink
	KodiEntityID string

	// Now defaults to time.Now.
	Now func() time.Time
}

const inboxSize = 64

type jobKind int

const (
	jobEvent jobKind = iota
	jobCommand
	jobTick
	jobResync
)

type job struct {
	kind  jobKind
	event models.LifecycleEvent
	cmd   Command
	cause string
	reply chan error
}

// Sensor is one derived view of the player. All mutation happens on the
// goroutine running Run; readers see the last published snapshot.
type Sensor struct {
	id        string
	caps      *capabilities
	deps      Deps
	keepAlive time.Duration
	log       zerolog.Logger

	inbox         chan job
	wake          chan struct{}
	resyncPending atomic.Bool
	resyncCause   atomic.Value
	tickPending   atomic.Bool
	done          chan struct{}
	running       atomic.Bool

	// Owned by the run goroutine.
	state     State
	meta      Meta
	items     []normalize.Item
	playerOff bool

	pubMu    sync.RWMutex
	pubState State
	pubAttrs Attributes
}

var _ fanout.Receiver = (*Sensor)(nil)

func newSensor(id string, caps *capabilities, deps Deps, keepAlive time.Duration) *Sensor {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.KodiEntityID == "" && deps.Gateway != nil {
		deps.KodiEntityID = "media_player.kodi_" + deps.Gateway.ID()
	}
	s := &Sensor{
		id:        id,
		caps:      caps,
		deps:      deps,
		keepAlive: cache.ClampWindow(keepAlive),
		log:       logging.With().Str("sensor", id).Str("kind", caps.kind).Logger(),
		inbox:     make(chan job, inboxSize),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		state:     StateOffline,
		meta:      Meta{},
		playerOff: true,
	}
	s.publish()
	return s
}

// ID returns the sensor id.
func (s *Sensor) ID() string { return s.id }

// Kind returns the sensor kind.
func (s *Sensor) Kind() string { return s.caps.kind }

// GatewayID returns the identity of the player connection.
func (s *Sensor) GatewayID() string { return s.deps.Gateway.ID() }

// Commands lists the commands this sensor accepts.
func (s *Sensor) Commands() []string {
	return append([]string(nil), s.caps.commandOrder...)
}

// CurrentState returns the published state.
func (s *Sensor) CurrentState() State {
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()
	return s.pubState
}

// Attributes returns the published meta and data.
func (s *Sensor) Attributes() Attributes {
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()
	return s.pubAttrs
}

// Info returns id, kind and state.
func (s *Sensor) Info() Info {
	return Info{ID: s.id, Kind: s.caps.kind, State: s.CurrentState()}
}

// Snapshot returns the published view.
func (s *Sensor) Snapshot() Snapshot {
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()
	return Snapshot{ID: s.id, Kind: s.caps.kind, State: s.pubState, Attributes: s.pubAttrs, At: s.deps.Now()}
}

// Deliver enqueues a lifecycle event. It blocks while the inbox is full
// and gives up once the sensor has stopped.
func (s *Sensor) Deliver(ev models.LifecycleEvent) {
	select {
	case s.inbox <- job{kind: jobEvent, event: ev}:
	case <-s.done:
	}
}

// Invoke runs cmd on the sensor loop and waits for it to finish.
func (s *Sensor) Invoke(ctx context.Context, cmd Command) error {
	if _, ok := s.caps.commands[cmd.Name]; !ok {
		return fmt.Errorf("%w: %q for %s sensor", ErrUnknownCommand, cmd.Name, s.caps.kind)
	}

	reply := make(chan error, 1)
	select {
	case s.inbox <- job{kind: jobCommand, cmd: cmd, reply: reply}:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick requests a keep-alive check. Ticks coalesce.
func (s *Sensor) Tick() {
	s.tickPending.Store(true)
	s.poke()
}

// Resync flags the sensor for a full refresh on its own loop. It never
// blocks, so fan-out from another sensor's loop cannot deadlock.
func (s *Sensor) Resync(event string) error {
	select {
	case <-s.done:
		return ErrStopped
	default:
	}
	s.resyncCause.Store(event)
	s.resyncPending.Store(true)
	s.poke()
	return nil
}

func (s *Sensor) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run processes the inbox until ctx is canceled.
func (s *Sensor) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("sensor already running")
	}
	defer close(s.done)

	s.log.Debug().Msg("Sensor loop started")
	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("Sensor loop stopped")
			return ctx.Err()
		case j := <-s.inbox:
			s.handle(ctx, j)
		case <-s.wake:
			if s.resyncPending.Swap(false) {
				cause, _ := s.resyncCause.Load().(string)
				s.handle(ctx, job{kind: jobResync, cause: cause})
			}
			if s.tickPending.Swap(false) {
				s.handle(ctx, job{kind: jobTick})
			}
		}
	}
}

func (s *Sensor) handle(ctx context.Context, j job) {
	start := time.Now()
	var (
		dirty  bool
		cmdErr error
	)

	switch j.kind {
	case jobEvent:
		s.playerOff = j.event.NewState.IsOff()
		action := s.caps.classify(j.event.OldState, j.event.NewState, j.event.OldTitle, j.event.NewTitle)
		s.log.Debug().Str("transition", j.event.String()).Str("action", action.String()).Msg("Lifecycle event")
		dirty = s.apply(ctx, action, j.event.ID)

	case jobCommand:
		dirty, cmdErr = s.command(ctx, j.cmd)

	case jobTick:
		if s.caps.tick != nil {
			dirty = s.caps.tick(ctx, s)
		}

	case jobResync:
		if s.playerOff {
			s.log.Debug().Str("event", j.cause).Msg("Ignoring resync while player is off")
			break
		}
		s.log.Debug().Str("event", j.cause).Msg("Resync requested by sibling")
		dirty = s.apply(ctx, RefreshAll, "fanout:"+j.cause)
	}

	metrics.RecordSensorSync(s.id, time.Since(start))
	if dirty {
		s.markDirty(ctx)
	}
	// Callers read Snapshot after Invoke returns, so reply once published.
	if j.reply != nil {
		j.reply <- cmdErr
	}
}

func (s *Sensor) command(ctx context.Context, cmd Command) (bool, error) {
	fn := s.caps.commands[cmd.Name]
	dirty, err := fn(ctx, s, newArgs(cmd))

	outcome := "ok"
	switch {
	case err == nil:
	case IsUsageError(err):
		outcome = "usage_error"
	default:
		outcome = "error"
	}
	metrics.SensorCommands.WithLabelValues(s.id, cmd.Name, outcome).Inc()

	if err != nil {
		s.log.Info().Err(err).Str("command", cmd.Name).Msg("Command rejected")
	}
	return dirty, err
}

// apply executes one classifier action and reports whether anything
// observable changed.
func (s *Sensor) apply(ctx context.Context, action Action, eventID string) bool {
	metrics.SensorActions.WithLabelValues(s.id, action.String()).Inc()

	switch action {
	case Clear:
		s.clear(StateOffline, Meta{})
		return true
	case RefreshAll:
		return s.refresh(ctx, s.caps.refreshAll, eventID)
	case RefreshMeta:
		if s.caps.refreshMeta == nil {
			return s.refresh(ctx, s.caps.refreshAll, eventID)
		}
		return s.refresh(ctx, s.caps.refreshMeta, eventID)
	default:
		return false
	}
}

func (s *Sensor) refresh(ctx context.Context, fn func(context.Context, *Sensor, string) error, eventID string) bool {
	if err := fn(ctx, s, eventID); err != nil {
		s.degrade(err)
		return true
	}
	s.settle()
	return true
}

// clear purges items and replaces meta.
func (s *Sensor) clear(state State, meta Meta) {
	s.items = nil
	s.meta = meta
	s.state = state
	s.deps.Cache.Invalidate(s.id)
}

// degrade keeps the stale items and flags the failure.
func (s *Sensor) degrade(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	metrics.SensorDegradations.WithLabelValues(s.id).Inc()
	s.log.Warn().Err(err).Bool("app_error", kodi.IsApplicationError(err)).Msg("Sensor degraded, keeping previous results")
	s.state = StateDegraded
}

// settle derives ONLINE or EMPTY from the current item list.
func (s *Sensor) settle() {
	if len(s.items) == 0 {
		s.state = StateEmpty
	} else {
		s.state = StateOnline
	}
}

// setItems replaces the item list and stamps its freshness in the cache.
func (s *Sensor) setItems(items []normalize.Item, window time.Duration) {
	if items == nil {
		items = []normalize.Item{}
	}
	s.items = items
	s.deps.Cache.Put(s.id, window, s.deps.Now())
}

// newMeta starts a fresh meta record for eventID.
func (s *Sensor) newMeta(eventID string) Meta {
	return Meta{
		"update_time":      UpdateTime(s.deps.Now()),
		"sensor_entity_id": "sensor." + s.id,
		"kodi_entity_id":   s.deps.KodiEntityID,
		"service_domain":   ServiceDomain,
		"event_id":         eventID,
	}
}

func (s *Sensor) markDirty(ctx context.Context) {
	s.publish()
	metrics.SensorDirtySignals.WithLabelValues(s.id).Inc()
	metrics.SensorState.WithLabelValues(s.id).Set(s.state.gaugeValue())
	metrics.SensorResultItems.WithLabelValues(s.id).Set(float64(len(s.items)))
	if s.deps.Sink != nil {
		s.deps.Sink.SensorDirty(ctx, s.Snapshot())
	}
}

func (s *Sensor) publish() {
	data := s.items
	if data == nil {
		data = []normalize.Item{}
	}
	attrs := Attributes{Meta: []Meta{s.meta.clone()}, Data: data}

	s.pubMu.Lock()
	s.pubState = s.state
	s.pubAttrs = attrs
	s.pubMu.Unlock()
}

// notify fans event out to siblings.
func (s *Sensor) notify(event string) {
	if s.deps.Notifier == nil {
		return
	}
	s.deps.Notifier.Notify(s, event)
}
