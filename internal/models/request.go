// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package models

// PostTarget names one (platform, channel) destination of a post request.
type PostTarget struct {
	Platform  Platform `json:"platform" validate:"required,platform"`
	ChannelID string   `json:"channel_id" validate:"required"`
}

// PostRequest is an inbound multi-target post request.
//
// ScheduledAt is an RFC3339 timestamp and is required when Mode is scheduled;
// other modes default to "now" at creation time.
type PostRequest struct {
	Mode        JobMode      `json:"mode" validate:"required,jobmode"`
	Targets     []PostTarget `json:"targets" validate:"required,min=1,dive"`
	Content     PostContent  `json:"content"`
	ScheduledAt string       `json:"scheduled_at,omitempty"`
}

// PublishResult is the per-target outcome of an immediate publish.
// One target's failure never aborts the others; callers receive a mixed
// results slice.
type PublishResult struct {
	Platform       Platform  `json:"platform"`
	ChannelID      string    `json:"channel_id"`
	Status         JobStatus `json:"status"`
	PlatformPostID string    `json:"platform_post_id,omitempty"`
	Error          *JobError `json:"error,omitempty"`
}
