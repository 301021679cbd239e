// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// stubService counts starts and fails the first failFirst of them.
type stubService struct {
	name      string
	failFirst int32
	starts    atomic.Int32
}

func newStubService(name string) *stubService {
	return &stubService{name: name}
}

func (s *stubService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.failFirst {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) Starts() int32 { return s.starts.Load() }

func (s *stubService) String() string { return s.name }
