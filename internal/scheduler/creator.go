// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

// Package scheduler turns post requests into durable jobs and drives them to
// completion: the Creator fans a request out into one job per target, the
// Runner sweeps due jobs through rate-limit checks and platform publishes,
// and the Service runs the sweep on a ticker.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/syndicate/internal/events"
	"github.com/tomtom215/syndicate/internal/logging"
	"github.com/tomtom215/syndicate/internal/metrics"
	"github.com/tomtom215/syndicate/internal/models"
	"github.com/tomtom215/syndicate/internal/store"
)

// Creator turns validated post requests into persisted pending jobs.
type Creator struct {
	store  store.JobStore
	events events.Publisher

	// now is injectable for tests.
	now func() time.Time
}

// NewCreator creates a job creator.
func NewCreator(jobStore store.JobStore, eventPub events.Publisher) *Creator {
	return &Creator{
		store:  jobStore,
		events: eventPub,
		now:    time.Now,
	}
}

// scheduledAtSkew is how far in the past a scheduled_at may be before it is
// rejected. Covers client clock drift and request transit time.
const scheduledAtSkew = time.Minute

// CreateJobs fans the request out into one pending job per target and persists
// the batch atomically. The returned jobs are in request target order.
//
// The request must already be struct-validated; CreateJobs only enforces the
// semantic rules validation tags cannot express: scheduled mode needs a
// parseable RFC3339 timestamp that is not in the past. Empty content fields
// are allowed and stored as-is.
func (c *Creator) CreateJobs(ctx context.Context, userID string, req *models.PostRequest) ([]*models.Job, error) {
	now := c.now().UTC()

	scheduledAt := now
	if req.Mode == models.ModeScheduled {
		if req.ScheduledAt == "" {
			return nil, fmt.Errorf("scheduled_at is required for scheduled mode")
		}
		parsed, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return nil, fmt.Errorf("parse scheduled_at: %w", err)
		}
		if parsed.Before(now.Add(-scheduledAtSkew)) {
			return nil, fmt.Errorf("scheduled_at %s is in the past", req.ScheduledAt)
		}
		scheduledAt = parsed.UTC()
	}

	jobs := make([]*models.Job, 0, len(req.Targets))
	for _, target := range req.Targets {
		jobs = append(jobs, &models.Job{
			ID:          uuid.NewString(),
			UserID:      userID,
			Platform:    target.Platform,
			ChannelID:   target.ChannelID,
			Mode:        req.Mode,
			Status:      models.StatusPending,
			Content:     req.Content,
			ScheduledAt: scheduledAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := c.store.CreateJobs(ctx, jobs); err != nil {
		return nil, fmt.Errorf("persist jobs: %w", err)
	}

	for _, job := range jobs {
		metrics.JobsCreated.WithLabelValues(string(job.Platform), string(job.Mode)).Inc()
		c.events.JobEvent(events.TypeJobCreated, job, "")
	}

	logging.Info().
		Str("user_id", userID).
		Str("mode", string(req.Mode)).
		Int("jobs", len(jobs)).
		Time("scheduled_at", scheduledAt).
		Msg("Created post jobs")

	return jobs, nil
}
