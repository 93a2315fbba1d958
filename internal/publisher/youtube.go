// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package publisher

import (
	"context"

	"github.com/tomtom215/syndicate/internal/models"
)

// YouTubeAdapter is registered so jobs targeting YouTube validate and queue,
// but publishing is not implemented: YouTube requires a resumable video
// upload, which does not fit the text-first publish path. Jobs routed here
// fail with a not_implemented error rather than being silently dropped.
type YouTubeAdapter struct{}

// NewYouTubeAdapter creates the YouTube placeholder adapter.
func NewYouTubeAdapter() *YouTubeAdapter {
	return &YouTubeAdapter{}
}

// Platform returns the platform identifier.
func (a *YouTubeAdapter) Platform() models.Platform {
	return models.PlatformYouTube
}

// Publish always fails with a not_implemented error.
func (a *YouTubeAdapter) Publish(_ context.Context, _ *models.Job) (string, error) {
	return "", &AdapterError{
		Platform: models.PlatformYouTube,
		Kind:     ErrKindNotImplemented,
		Message:  "video upload is not supported",
	}
}
