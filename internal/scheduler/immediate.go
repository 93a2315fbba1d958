// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/syndicate/internal/logging"
	"github.com/tomtom215/syndicate/internal/metrics"
	"github.com/tomtom215/syndicate/internal/models"
	"github.com/tomtom215/syndicate/internal/publisher"
)

// ImmediatePublisher is the synchronous "post now" path. It calls adapters
// directly with no job row and no rate-limit gate: post-now is an explicit
// user action that bypasses automated-cadence protection. Because nothing is
// persisted, immediate posts do not count toward a channel's scheduled-post
// history.
type ImmediatePublisher struct {
	registry       *publisher.Registry
	publishTimeout time.Duration
}

// NewImmediatePublisher creates the post-now publisher.
func NewImmediatePublisher(registry *publisher.Registry, publishTimeout time.Duration) *ImmediatePublisher {
	if publishTimeout <= 0 {
		publishTimeout = 60 * time.Second
	}
	return &ImmediatePublisher{
		registry:       registry,
		publishTimeout: publishTimeout,
	}
}

// PublishNow publishes the content to every target synchronously and returns
// one result per target, in target order. Per-target failures are isolated:
// one target's error never aborts the others.
func (p *ImmediatePublisher) PublishNow(ctx context.Context, userID string, targets []models.PostTarget, content models.PostContent) []models.PublishResult {
	results := make([]models.PublishResult, 0, len(targets))

	for _, target := range targets {
		results = append(results, p.publishOne(ctx, userID, target, content))
	}

	return results
}

// publishOne publishes to a single target. The adapter sees a transient job
// value so adapter code is shared with the scheduled path.
func (p *ImmediatePublisher) publishOne(ctx context.Context, userID string, target models.PostTarget, content models.PostContent) models.PublishResult {
	now := time.Now().UTC()
	job := &models.Job{
		ID:          uuid.NewString(),
		UserID:      userID,
		Platform:    target.Platform,
		ChannelID:   target.ChannelID,
		Mode:        models.ModeImmediate,
		Status:      models.StatusProcessing,
		Content:     content,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	postID, err := p.registry.Publish(publishCtx, job)
	if err != nil {
		metrics.PublishAttempts.WithLabelValues(string(target.Platform), "failed").Inc()
		logging.Warn().Err(err).
			Str("user_id", userID).
			Str("platform", string(target.Platform)).
			Str("channel_id", target.ChannelID).
			Msg("Immediate publish failed")
		return models.PublishResult{
			Platform:  target.Platform,
			ChannelID: target.ChannelID,
			Status:    models.StatusFailed,
			Error:     jobError(target.Platform, err),
		}
	}

	metrics.PublishAttempts.WithLabelValues(string(target.Platform), "posted").Inc()
	logging.Info().
		Str("user_id", userID).
		Str("platform", string(target.Platform)).
		Str("channel_id", target.ChannelID).
		Str("platform_post_id", postID).
		Msg("Immediate publish succeeded")

	return models.PublishResult{
		Platform:       target.Platform,
		ChannelID:      target.ChannelID,
		Status:         models.StatusPosted,
		PlatformPostID: postID,
	}
}
