// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package services

import (
	"context"
)

// SweepManager matches the scheduler service's Start/Stop lifecycle.
// Satisfied by *scheduler.Service.
type SweepManager interface {
	Start(ctx context.Context)
	Stop()
}

// SchedulerService wraps the periodic sweep loop as a supervised service.
type SchedulerService struct {
	manager SweepManager
	name    string
}

// NewSchedulerService creates the sweep service wrapper.
func NewSchedulerService(manager SweepManager) *SchedulerService {
	return &SchedulerService{
		manager: manager,
		name:    "scheduler-sweep",
	}
}

// Serve implements suture.Service: start the loop, block until shutdown,
// then stop it and wait for the in-flight sweep.
func (s *SchedulerService) Serve(ctx context.Context) error {
	s.manager.Start(ctx)

	<-ctx.Done()

	s.manager.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it to name the service in logs.
func (s *SchedulerService) String() string {
	return s.name
}
