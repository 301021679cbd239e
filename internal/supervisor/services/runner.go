// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// RunFunc is a loop that blocks until ctx is canceled, such as
// (*sensor.Sensor).Run or (*websocket.Hub).RunWithContext.
type RunFunc func(ctx context.Context) error

// RunnerService adapts a RunFunc to suture.Service.
type RunnerService struct {
	name    string
	run     RunFunc
	oneShot bool
}

// NewRunnerService names run for the supervisor's logs.
func NewRunnerService(name string, run RunFunc) *RunnerService {
	return &RunnerService{name: name, run: run}
}

// NewOneShotRunnerService is for loops that cannot be started twice. When
// the loop exits on its own the supervisor does not restart it.
func NewOneShotRunnerService(name string, run RunFunc) *RunnerService {
	return &RunnerService{name: name, run: run, oneShot: true}
}

// Serve runs the loop. A loop that returns while ctx is still live is
// reported as a failure so suture restarts it.
func (r *RunnerService) Serve(ctx context.Context) error {
	err := r.run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if r.oneShot {
		if err != nil {
			return fmt.Errorf("%s: %w: %w", r.name, suture.ErrDoNotRestart, err)
		}
		return suture.ErrDoNotRestart
	}
	if err == nil {
		err = errors.New("exited unexpectedly")
	}
	return fmt.Errorf("%s: %w", r.name, err)
}

func (r *RunnerService) String() string {
	return r.name
}
