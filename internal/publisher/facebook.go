// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package publisher

import (
	"context"

	"github.com/tomtom215/syndicate/internal/accounts"
	"github.com/tomtom215/syndicate/internal/models"
)

// FacebookAdapter publishes to a Facebook Page feed via the Graph API.
// The job's channel ID is the Page ID; the stored access token must be a
// long-lived Page token (no refresh flow).
type FacebookAdapter struct {
	tokens  *accounts.TokenSource
	api     *apiClient
	baseURL string
}

// NewFacebookAdapter creates a Facebook adapter.
func NewFacebookAdapter(tokens *accounts.TokenSource) *FacebookAdapter {
	return &FacebookAdapter{
		tokens:  tokens,
		api:     newAPIClient(models.PlatformFacebook, 1, 3),
		baseURL: "https://graph.facebook.com/v19.0",
	}
}

// Platform returns the platform identifier.
func (a *FacebookAdapter) Platform() models.Platform {
	return models.PlatformFacebook
}

// fbFeedRequest is the POST /{page-id}/feed payload.
type fbFeedRequest struct {
	Message     string `json:"message"`
	Link        string `json:"link,omitempty"`
	AccessToken string `json:"access_token"`
}

// fbFeedResponse is the POST /{page-id}/feed response.
type fbFeedResponse struct {
	ID string `json:"id"`
}

// Publish posts the job's content to the Page feed.
func (a *FacebookAdapter) Publish(ctx context.Context, job *models.Job) (string, error) {
	account, err := a.tokens.Fresh(ctx, job.UserID, job.Platform, job.ChannelID, nil)
	if err != nil {
		return "", &AdapterError{
			Platform: models.PlatformFacebook,
			Kind:     ErrKindAuth,
			Message:  "load credentials",
			Err:      err,
		}
	}

	payload := fbFeedRequest{
		Message:     composeText(job.Content, 0),
		Link:        metaString(job.Content, "link"),
		AccessToken: account.AccessToken,
	}

	var resp fbFeedResponse
	if err := a.api.postJSON(ctx, a.baseURL+"/"+job.ChannelID+"/feed", nil, payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &AdapterError{
			Platform: models.PlatformFacebook,
			Kind:     ErrKindAdapter,
			Message:  "response carried no post ID",
		}
	}

	return resp.ID, nil
}
