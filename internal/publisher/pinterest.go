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

// pinDescriptionLimit is Pinterest's pin description character limit.
const pinDescriptionLimit = 800

// PinterestAdapter publishes pins via the Pinterest v5 API.
// The board comes from content metadata ("board_id") when present; otherwise
// the channel ID is used as the board ID.
type PinterestAdapter struct {
	tokens  *accounts.TokenSource
	api     *apiClient
	baseURL string
}

// NewPinterestAdapter creates a Pinterest adapter.
func NewPinterestAdapter(tokens *accounts.TokenSource) *PinterestAdapter {
	return &PinterestAdapter{
		tokens:  tokens,
		api:     newAPIClient(models.PlatformPinterest, 2, 4),
		baseURL: "https://api.pinterest.com/v5",
	}
}

// Platform returns the platform identifier.
func (a *PinterestAdapter) Platform() models.Platform {
	return models.PlatformPinterest
}

// pinMediaSource describes the pin's image.
type pinMediaSource struct {
	SourceType string `json:"source_type"`
	URL        string `json:"url"`
}

// pinCreateRequest is the POST /v5/pins payload.
type pinCreateRequest struct {
	BoardID     string          `json:"board_id"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Link        string          `json:"link,omitempty"`
	MediaSource *pinMediaSource `json:"media_source,omitempty"`
}

// pinCreateResponse is the POST /v5/pins response.
type pinCreateResponse struct {
	ID string `json:"id"`
}

// Publish creates a pin for the job's content.
func (a *PinterestAdapter) Publish(ctx context.Context, job *models.Job) (string, error) {
	account, err := a.tokens.Fresh(ctx, job.UserID, job.Platform, job.ChannelID, nil)
	if err != nil {
		return "", &AdapterError{
			Platform: models.PlatformPinterest,
			Kind:     ErrKindAuth,
			Message:  "load credentials",
			Err:      err,
		}
	}

	boardID := metaString(job.Content, "board_id")
	if boardID == "" {
		boardID = job.ChannelID
	}

	payload := pinCreateRequest{
		BoardID:     boardID,
		Title:       truncate(job.Content.Title, 100),
		Description: composeText(job.Content, pinDescriptionLimit),
		Link:        metaString(job.Content, "link"),
	}
	if imageURL := metaString(job.Content, "image_url"); imageURL != "" {
		payload.MediaSource = &pinMediaSource{
			SourceType: "image_url",
			URL:        imageURL,
		}
	}

	var resp pinCreateResponse
	if err := a.api.postJSON(ctx, a.baseURL+"/pins", bearerHeader(account.AccessToken), payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &AdapterError{
			Platform: models.PlatformPinterest,
			Kind:     ErrKindAdapter,
			Message:  "response carried no pin ID",
		}
	}

	return resp.ID, nil
}
