// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package services

import (
	"context"
	"time"

	"github.com/tomtom215/syndicate/internal/logging"
)

// GarbageCollector matches the Badger store's value-log GC entry point.
// Satisfied by *store.BadgerStore.
type GarbageCollector interface {
	RunGC(discardRatio float64) error
}

// BadgerGCService runs Badger's value-log garbage collection on an interval.
// Badger never runs GC on its own; without this loop the value log grows
// unbounded.
type BadgerGCService struct {
	store        GarbageCollector
	interval     time.Duration
	discardRatio float64
	name         string
}

// NewBadgerGCService creates the GC loop service.
func NewBadgerGCService(store GarbageCollector, interval time.Duration, discardRatio float64) *BadgerGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &BadgerGCService{
		store:        store,
		interval:     interval,
		discardRatio: discardRatio,
		name:         "badger-gc",
	}
}

// Serve implements suture.Service.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// ErrNoRewrite is normal: nothing worth compacting this round.
			if err := s.store.RunGC(s.discardRatio); err != nil {
				logging.Debug().Err(err).Msg("Badger value-log GC pass skipped")
			}
		}
	}
}

// String implements fmt.Stringer; suture uses it to name the service in logs.
func (s *BadgerGCService) String() string {
	return s.name
}
