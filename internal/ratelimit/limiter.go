// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

// Package ratelimit decides whether a job may post now or must be deferred.
//
// Two independent checks protect a channel from platform abuse detection:
// a daily cap bounding total volume, and a minimum spacing bounding
// burstiness. Both are evaluated against the channel's persisted posting
// history; a rejection carries the next eligible time so the scheduler can
// push the job's scheduledAt forward instead of failing it.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/syndicate/internal/metrics"
	"github.com/tomtom215/syndicate/internal/models"
	"github.com/tomtom215/syndicate/internal/store"
)

// Reason is a machine-readable deferral reason.
type Reason string

// Deferral reasons.
const (
	ReasonDailyCap Reason = "daily_cap"
	ReasonInterval Reason = "interval"
)

// Policy is the posting policy for one platform.
type Policy struct {
	// MaxPerDay caps posted jobs per channel per calendar day.
	MaxPerDay int

	// MinInterval is the minimum spacing between posts on one channel.
	MinInterval time.Duration
}

// defaultPolicies is the built-in per-platform policy table. Values are
// deliberately below published platform limits; operators can override per
// platform via configuration.
var defaultPolicies = map[models.Platform]Policy{
	models.PlatformX:         {MaxPerDay: 16, MinInterval: 30 * time.Minute},
	models.PlatformFacebook:  {MaxPerDay: 8, MinInterval: 90 * time.Minute},
	models.PlatformInstagram: {MaxPerDay: 10, MinInterval: 60 * time.Minute},
	models.PlatformLinkedIn:  {MaxPerDay: 5, MinInterval: 120 * time.Minute},
	models.PlatformYouTube:   {MaxPerDay: 3, MinInterval: 240 * time.Minute},
	models.PlatformPinterest: {MaxPerDay: 20, MinInterval: 15 * time.Minute},
}

// conservativeDefault applies to platforms absent from the table.
var conservativeDefault = Policy{MaxPerDay: 4, MinInterval: 180 * time.Minute}

// Decision is the outcome of a rate-limit evaluation.
type Decision struct {
	// OK is true when the job may post now.
	OK bool

	// Reason explains a rejection.
	Reason Reason

	// NextEligibleAt is when a rejected job becomes eligible again.
	NextEligibleAt time.Time
}

// Limiter evaluates per-platform posting policy against persisted history.
type Limiter struct {
	store    store.JobStore
	policies map[models.Platform]Policy

	// now is injectable for tests.
	now func() time.Time
}

// New creates a Limiter. overrides replace the built-in policy for the named
// platforms; pass nil to use the defaults unchanged.
func New(jobStore store.JobStore, overrides map[models.Platform]Policy) *Limiter {
	policies := make(map[models.Platform]Policy, len(defaultPolicies))
	for p, policy := range defaultPolicies {
		policies[p] = policy
	}
	for p, policy := range overrides {
		policies[p] = policy
	}

	return &Limiter{
		store:    jobStore,
		policies: policies,
		now:      time.Now,
	}
}

// PolicyFor returns the effective policy for a platform.
func (l *Limiter) PolicyFor(platform models.Platform) Policy {
	if policy, ok := l.policies[platform]; ok {
		return policy
	}
	return conservativeDefault
}

// CanPostNow decides whether the job may post now.
//
// The daily cap uses the runner's local calendar day; a job exactly at the
// spacing boundary is accepted (strict less-than rejection only).
func (l *Limiter) CanPostNow(ctx context.Context, job *models.Job) (Decision, error) {
	now := l.now()
	policy := l.PolicyFor(job.Platform)

	history, err := l.store.PostedSince(ctx, job.UserID, job.Platform, job.ChannelID, now.Add(-24*time.Hour))
	if err != nil {
		return Decision{}, fmt.Errorf("load posting history: %w", err)
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	postedToday := 0
	for _, posted := range history {
		if posted.ExecutedAt != nil && !posted.ExecutedAt.Before(startOfDay) {
			postedToday++
		}
	}
	if postedToday >= policy.MaxPerDay {
		metrics.RateLimitDeferrals.WithLabelValues(string(job.Platform), string(ReasonDailyCap)).Inc()
		return Decision{
			OK:             false,
			Reason:         ReasonDailyCap,
			NextEligibleAt: startOfDay.Add(24 * time.Hour),
		}, nil
	}

	if len(history) > 0 {
		last := history[len(history)-1].ExecutedAt
		if last != nil && now.Sub(*last) < policy.MinInterval {
			metrics.RateLimitDeferrals.WithLabelValues(string(job.Platform), string(ReasonInterval)).Inc()
			return Decision{
				OK:             false,
				Reason:         ReasonInterval,
				NextEligibleAt: last.Add(policy.MinInterval),
			}, nil
		}
	}

	return Decision{OK: true}, nil
}
