// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/syndicate/internal/logging"
)

// Service runs the sweep on a fixed interval. RunDue itself is a single
// sweep-and-return; the service is the timer around it. Manual triggers via
// the API call the runner directly and work whether or not the service runs.
type Service struct {
	runner   *Runner
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewService creates the periodic sweep service.
func NewService(runner *Runner, interval time.Duration) *Service {
	return &Service{
		runner:   runner,
		interval: interval,
	}
}

// Start launches the sweep loop. Safe to call once; a second call while
// running is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(loopCtx)

	logging.Info().
		Dur("interval", s.interval).
		Msg("Scheduler service started")
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done

	logging.Info().Msg("Scheduler service stopped")
}

// loop sweeps once immediately, then on every tick until the context ends.
func (s *Service) loop(ctx context.Context) {
	defer close(s.done)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one RunDue, logging errors instead of crashing the loop.
func (s *Service) sweep(ctx context.Context) {
	if _, err := s.runner.RunDue(ctx, 0); err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.Error().Err(err).Msg("Scheduler sweep failed")
	}
}
