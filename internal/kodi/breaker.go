// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package kodi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/mediasensors/internal/logging"
	"github.com/tomtom215/mediasensors/internal/metrics"
)

// BreakerGateway guards a Gateway with a circuit breaker so a dead Kodi host
// is not hammered by every sensor at once.
//
// Application errors (a Kodi error object) count as successes for the
// breaker: the host answered, the request was just wrong.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[json.RawMessage]
	name string
}

var _ Gateway = (*BreakerGateway)(nil)

// BreakerConfig tunes the breaker. Zero values fall back to the defaults
// below.
type BreakerConfig struct {
	MaxRequests  uint32        // half-open probes, default 3
	Interval     time.Duration // closed-state count reset, default 1m
	Timeout      time.Duration // open -> half-open, default 2m
	MinRequests  uint32        // default 10
	FailureRatio float64       // default 0.6
}

// NewBreakerGateway wraps next.
func NewBreakerGateway(next Gateway, cfg BreakerConfig) *BreakerGateway {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureRatio == 0 {
		cfg.FailureRatio = 0.6
	}

	name := "kodi-" + next.ID()
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).Msg("[CIRCUIT BREAKER] Opening Kodi circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsApplicationError(err) || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerGateway{next: next, cb: cb, name: name}
}

// ID returns the wrapped gateway's identity.
func (b *BreakerGateway) ID() string {
	return b.next.ID()
}

// Call runs the wrapped call through the breaker.
func (b *BreakerGateway) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	result, err := b.cb.Execute(func() (json.RawMessage, error) {
		return b.next.Call(ctx, method, params)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %s: %w", ErrCircuitOpen, method, err)
		}
		if IsApplicationError(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
			return nil, err
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// State returns the breaker state as a string.
func (b *BreakerGateway) State() string {
	return stateToString(b.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
