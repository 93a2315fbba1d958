// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/syndicate/internal/events"
	"github.com/tomtom215/syndicate/internal/logging"
	"github.com/tomtom215/syndicate/internal/metrics"
	"github.com/tomtom215/syndicate/internal/models"
	"github.com/tomtom215/syndicate/internal/publisher"
	"github.com/tomtom215/syndicate/internal/ratelimit"
	"github.com/tomtom215/syndicate/internal/store"
)

// SweepResult summarizes one scheduler sweep.
type SweepResult struct {
	Scanned  int `json:"scanned"`
	Posted   int `json:"posted"`
	Failed   int `json:"failed"`
	Deferred int `json:"deferred"`
}

// RunnerOptions configures the sweep runner.
type RunnerOptions struct {
	// BatchLimit caps due jobs pulled per sweep.
	BatchLimit int

	// PublishTimeout bounds a single adapter publish call.
	PublishTimeout time.Duration

	// LeaseTimeout is how long a processing job may sit before ReclaimStale
	// reverts it to pending.
	LeaseTimeout time.Duration
}

// Runner executes due jobs: it pulls the due batch, gates each job through
// the rate limiter, and drives accepted jobs to a terminal status.
//
// Exactly one runner must sweep a given store; concurrent sweeps would race
// on the pending -> processing transition.
type Runner struct {
	store    store.JobStore
	limiter  *ratelimit.Limiter
	registry *publisher.Registry
	events   events.Publisher
	opts     RunnerOptions

	// now is injectable for tests.
	now func() time.Time
}

// NewRunner creates a sweep runner.
func NewRunner(jobStore store.JobStore, limiter *ratelimit.Limiter, registry *publisher.Registry, eventPub events.Publisher, opts RunnerOptions) *Runner {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 50
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 60 * time.Second
	}
	if opts.LeaseTimeout <= 0 {
		opts.LeaseTimeout = 15 * time.Minute
	}
	return &Runner{
		store:    jobStore,
		limiter:  limiter,
		registry: registry,
		events:   eventPub,
		opts:     opts,
	}
}

// clock returns the runner's time source, defaulting to the wall clock.
func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// RunDue executes one sweep: pull due pending jobs, gate each through the
// rate limiter, publish the accepted ones, and persist terminal outcomes.
// A limit of zero or less uses the configured batch limit.
//
// One job's failure never aborts the sweep. A rate-limit deferral pushes the
// job's scheduled time to the limiter's next eligible time and leaves it
// pending; it will surface again in a later sweep. Persistence errors on a
// single job are logged and skipped so a corrupt document cannot wedge the
// whole queue.
func (r *Runner) RunDue(ctx context.Context, limit int) (SweepResult, error) {
	if limit <= 0 {
		limit = r.opts.BatchLimit
	}
	start := r.clock()

	due, err := r.store.ListDue(ctx, start, limit)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list due jobs: %w", err)
	}

	result := SweepResult{Scanned: len(due)}
	metrics.SweepBatchSize.Observe(float64(len(due)))

	for _, job := range due {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("sweep aborted: %w", err)
		}

		switch r.runOne(ctx, job) {
		case models.StatusPosted:
			result.Posted++
		case models.StatusFailed:
			result.Failed++
		case models.StatusPending:
			result.Deferred++
		}
	}

	metrics.SweepDuration.Observe(time.Since(start).Seconds())

	logging.Info().
		Int("scanned", result.Scanned).
		Int("posted", result.Posted).
		Int("failed", result.Failed).
		Int("deferred", result.Deferred).
		Dur("duration", time.Since(start)).
		Msg("Scheduler sweep complete")

	return result, nil
}

// runOne drives a single due job and returns the status it ended the sweep
// with: posted, failed, or pending (deferred or skipped).
func (r *Runner) runOne(ctx context.Context, job *models.Job) models.JobStatus {
	decision, err := r.limiter.CanPostNow(ctx, job)
	if err != nil {
		logging.Error().Err(err).
			Str("job_id", job.ID).
			Msg("Rate-limit check failed, leaving job pending")
		return models.StatusPending
	}

	if !decision.OK {
		return r.deferJob(ctx, job, decision)
	}

	// Claim the job before calling out so a second sweep started during a
	// slow publish cannot pick it up again.
	job.Status = models.StatusProcessing
	job.UpdatedAt = r.clock().UTC()
	if err := r.store.UpdateJob(ctx, job); err != nil {
		logging.Error().Err(err).
			Str("job_id", job.ID).
			Msg("Failed to claim job, leaving it pending")
		return models.StatusPending
	}

	return r.Execute(ctx, job)
}

// deferJob pushes a rate-limited job's scheduled time forward, keeping it
// pending.
func (r *Runner) deferJob(ctx context.Context, job *models.Job, decision ratelimit.Decision) models.JobStatus {
	job.ScheduledAt = decision.NextEligibleAt.UTC()
	job.UpdatedAt = r.clock().UTC()
	if err := r.store.UpdateJob(ctx, job); err != nil {
		logging.Error().Err(err).
			Str("job_id", job.ID).
			Msg("Failed to persist deferral")
		return models.StatusPending
	}

	r.events.JobEvent(events.TypeJobDeferred, job, string(decision.Reason))

	logging.Debug().
		Str("job_id", job.ID).
		Str("platform", string(job.Platform)).
		Str("reason", string(decision.Reason)).
		Time("next_eligible_at", decision.NextEligibleAt).
		Msg("Job deferred by rate limiter")

	return models.StatusPending
}

// Execute publishes a claimed (processing) job and persists its terminal
// status. It is also the execution path for immediate publishes.
func (r *Runner) Execute(ctx context.Context, job *models.Job) models.JobStatus {
	publishCtx, cancel := context.WithTimeout(ctx, r.opts.PublishTimeout)
	defer cancel()

	postID, err := r.registry.Publish(publishCtx, job)
	executedAt := r.clock().UTC()
	job.ExecutedAt = &executedAt
	job.UpdatedAt = executedAt

	if err != nil {
		job.Status = models.StatusFailed
		job.Error = jobError(job.Platform, err)
		metrics.PublishAttempts.WithLabelValues(string(job.Platform), "failed").Inc()

		logging.Warn().Err(err).
			Str("job_id", job.ID).
			Str("platform", string(job.Platform)).
			Str("channel_id", job.ChannelID).
			Str("error_kind", job.Error.Kind).
			Msg("Publish failed")
	} else {
		job.Status = models.StatusPosted
		job.PlatformPostID = postID
		job.Error = nil
		metrics.PublishAttempts.WithLabelValues(string(job.Platform), "posted").Inc()

		logging.Info().
			Str("job_id", job.ID).
			Str("platform", string(job.Platform)).
			Str("channel_id", job.ChannelID).
			Str("platform_post_id", postID).
			Msg("Published post")
	}

	if updateErr := r.store.UpdateJob(ctx, job); updateErr != nil {
		// The platform call already happened; all we can do is log loudly.
		// A success left unrecorded means the reclaim sweep will eventually
		// revert the job to pending, risking a duplicate post.
		logging.Error().Err(updateErr).
			Str("job_id", job.ID).
			Str("status", string(job.Status)).
			Msg("Failed to persist job outcome")
		return job.Status
	}

	if job.Status == models.StatusPosted {
		r.events.JobEvent(events.TypeJobPosted, job, "")
	} else {
		r.events.JobEvent(events.TypeJobFailed, job, job.Error.Kind)
	}

	return job.Status
}

// ReclaimStale reverts jobs stuck in processing longer than the lease timeout
// back to pending so the next sweep retries them. Returns the number of jobs
// reclaimed.
//
// Reclaim is an explicit operator action, never run implicitly: a stuck job
// usually means a crash mid-publish, and re-running it can double-post.
func (r *Runner) ReclaimStale(ctx context.Context) (int, error) {
	cutoff := r.clock().Add(-r.opts.LeaseTimeout)

	stale, err := r.store.ProcessingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale processing jobs: %w", err)
	}

	reclaimed := 0
	for _, job := range stale {
		stuckSince := job.UpdatedAt
		job.Status = models.StatusPending
		job.UpdatedAt = r.clock().UTC()
		if err := r.store.UpdateJob(ctx, job); err != nil {
			logging.Error().Err(err).
				Str("job_id", job.ID).
				Msg("Failed to reclaim stale job")
			continue
		}
		reclaimed++
		metrics.JobsReclaimed.Inc()
		logging.Warn().
			Str("job_id", job.ID).
			Str("platform", string(job.Platform)).
			Time("stuck_since", stuckSince).
			Msg("Reclaimed stale processing job")
	}

	return reclaimed, nil
}

// jobError converts a publish error into the persisted job error form.
func jobError(platform models.Platform, err error) *models.JobError {
	var adapterErr *publisher.AdapterError
	if errors.As(err, &adapterErr) {
		return &models.JobError{
			Kind:    adapterErr.Kind,
			Message: adapterErr.Error(),
		}
	}
	return &models.JobError{
		Kind:    publisher.ErrKindAdapter,
		Message: fmt.Sprintf("%s publish failed: %v", platform, err),
	}
}
