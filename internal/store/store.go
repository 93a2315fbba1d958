// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

// Package store persists post jobs in BadgerDB.
//
// Jobs are stored as JSON documents keyed by ID, with prefix-scan secondary
// indexes for the three queries the orchestrator needs: due pending jobs in
// scheduledAt order, the posted history of one (user, platform, channel), and
// jobs stuck in processing. The job store is the single source of truth for
// job state; every status transition goes through UpdateJob.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/syndicate/internal/models"
)

// Sentinel errors.
var (
	// ErrJobNotFound indicates the requested job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoJobs indicates a batch insert was attempted with no jobs.
	ErrNoJobs = errors.New("no jobs to insert")
)

// JobStore defines the persistence operations the orchestrator needs.
//
// Implementations must keep the secondary indexes consistent with the
// documents: ListDue must only return jobs whose persisted status is pending,
// and PostedSince must only return jobs whose persisted status is posted.
type JobStore interface {
	// CreateJobs inserts a batch of jobs atomically. The batch either fully
	// succeeds or returns an error with nothing persisted.
	CreateJobs(ctx context.Context, jobs []*models.Job) error

	// GetJob returns the job with the given ID, or ErrJobNotFound.
	GetJob(ctx context.Context, id string) (*models.Job, error)

	// UpdateJob replaces the stored document and reindexes it. The job must
	// already exist.
	UpdateJob(ctx context.Context, job *models.Job) error

	// ListDue returns up to limit pending jobs with ScheduledAt <= now,
	// ordered by ScheduledAt ascending (insertion order breaks ties).
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Job, error)

	// PostedSince returns posted jobs for one (user, platform, channel) with
	// ExecutedAt >= since, ordered by ExecutedAt ascending.
	PostedSince(ctx context.Context, userID string, platform models.Platform, channelID string, since time.Time) ([]*models.Job, error)

	// ListByUser returns up to limit jobs for a user, newest first.
	// status filters by job status when non-empty.
	ListByUser(ctx context.Context, userID string, status models.JobStatus, limit int) ([]*models.Job, error)

	// ProcessingOlderThan returns jobs that entered processing before cutoff.
	// Used by the reclaim sweep to rescue jobs stranded by a crash.
	ProcessingOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Job, error)

	// Ping verifies the store is reachable. Used by health checks.
	Ping(ctx context.Context) error

	// Close releases the underlying database.
	Close() error
}
