// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

// Package models defines the core data types shared across Syndicate.
//
// The central type is Job: one scheduled, immediate, or automatic post
// targeting exactly one (platform, channel) pair. The persisted job document
// is a durable contract that external tooling (dashboards, retry tooling)
// may rely on; field names and semantics must stay stable.
package models

import "time"

// Platform identifies a supported social platform.
type Platform string

// Supported platforms. The set is closed; adapters are registered per value.
const (
	PlatformYouTube   Platform = "youtube"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformX         Platform = "x"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformPinterest Platform = "pinterest"
)

// Platforms returns all supported platform values.
func Platforms() []Platform {
	return []Platform{
		PlatformYouTube,
		PlatformFacebook,
		PlatformInstagram,
		PlatformX,
		PlatformLinkedIn,
		PlatformPinterest,
	}
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformYouTube, PlatformFacebook, PlatformInstagram,
		PlatformX, PlatformLinkedIn, PlatformPinterest:
		return true
	default:
		return false
	}
}

// JobMode records the provenance of a job, not its execution path.
type JobMode string

// Job modes.
const (
	ModeImmediate JobMode = "immediate"
	ModeScheduled JobMode = "scheduled"
	ModeAutomatic JobMode = "automatic"
)

// Valid reports whether m is a known job mode.
func (m JobMode) Valid() bool {
	switch m {
	case ModeImmediate, ModeScheduled, ModeAutomatic:
		return true
	default:
		return false
	}
}

// JobStatus is the lifecycle state of a job.
//
// Transitions only ever advance pending -> processing -> {posted, failed}.
// A rate-limit deferral pushes ScheduledAt forward while the status stays
// pending; that is not a state transition.
type JobStatus string

// Job statuses.
const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusPosted     JobStatus = "posted"
	StatusFailed     JobStatus = "failed"
)

// PostContent is the normalized payload shared by every platform.
//
// Metadata is an open extension map for platform-specific fields (media IDs,
// poll options, board IDs) that individual adapters interpret; the
// orchestrator never inspects it.
type PostContent struct {
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Hashtags []string               `json:"hashtags,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// JobError is structured failure information persisted on a failed job.
type JobError struct {
	// Kind is a machine-readable error kind (e.g. "adapter", "timeout",
	// "not_implemented", "auth").
	Kind string `json:"kind"`

	// Message is a human-readable description for manual reconciliation.
	Message string `json:"message"`
}

// Job is one scheduled/immediate/automatic post targeting one platform+channel.
//
// Invariants:
//   - PlatformPostID is set if and only if Status == posted.
//   - Error is set if and only if Status == failed.
//   - Each job is scoped to exactly one (Platform, ChannelID) pair.
type Job struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Platform  Platform  `json:"platform"`
	ChannelID string    `json:"channel_id"`
	Mode      JobMode   `json:"mode"`
	Status    JobStatus `json:"status"`

	Content PostContent `json:"content"`

	// ScheduledAt is the time after which the job becomes eligible for
	// execution. For immediate/automatic jobs this is the creation time.
	ScheduledAt time.Time `json:"scheduled_at"`

	// ExecutedAt is the time of the last execution attempt (success or
	// terminal failure), nil until then.
	ExecutedAt *time.Time `json:"executed_at,omitempty"`

	// PlatformPostID is the opaque ID returned by the platform on success.
	PlatformPostID string `json:"platform_post_id,omitempty"`

	Error *JobError `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the job has reached a terminal status.
func (j *Job) Terminal() bool {
	return j.Status == StatusPosted || j.Status == StatusFailed
}
