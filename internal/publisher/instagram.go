// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package publisher

import (
	"context"
	"fmt"

	"github.com/tomtom215/syndicate/internal/accounts"
	"github.com/tomtom215/syndicate/internal/models"
)

// igCaptionLimit is Instagram's caption character limit.
const igCaptionLimit = 2200

// InstagramAdapter publishes to an Instagram professional account via the
// Graph API's two-step container flow: create a media container, then
// publish it.
//
// Step two failing leaves a created-but-unpublished container on the
// platform; that surfaces as ErrKindPartialPublish with the container ID in
// the message so it can be reconciled manually.
type InstagramAdapter struct {
	tokens  *accounts.TokenSource
	api     *apiClient
	baseURL string
}

// NewInstagramAdapter creates an Instagram adapter.
func NewInstagramAdapter(tokens *accounts.TokenSource) *InstagramAdapter {
	return &InstagramAdapter{
		tokens:  tokens,
		api:     newAPIClient(models.PlatformInstagram, 1, 2),
		baseURL: "https://graph.facebook.com/v19.0",
	}
}

// Platform returns the platform identifier.
func (a *InstagramAdapter) Platform() models.Platform {
	return models.PlatformInstagram
}

// igContainerRequest is the POST /{ig-user-id}/media payload.
type igContainerRequest struct {
	ImageURL    string `json:"image_url"`
	Caption     string `json:"caption,omitempty"`
	AccessToken string `json:"access_token"`
}

// igPublishRequest is the POST /{ig-user-id}/media_publish payload.
type igPublishRequest struct {
	CreationID  string `json:"creation_id"`
	AccessToken string `json:"access_token"`
}

// igIDResponse is the response shape of both steps.
type igIDResponse struct {
	ID string `json:"id"`
}

// Publish creates and publishes a media container for the job's content.
// Instagram has no text-only posts; the image URL comes from content
// metadata ("image_url"), populated upstream by the image generation
// pipeline.
func (a *InstagramAdapter) Publish(ctx context.Context, job *models.Job) (string, error) {
	imageURL := metaString(job.Content, "image_url")
	if imageURL == "" {
		return "", &AdapterError{
			Platform: models.PlatformInstagram,
			Kind:     ErrKindAdapter,
			Message:  "content metadata is missing image_url; instagram posts require media",
		}
	}

	account, err := a.tokens.Fresh(ctx, job.UserID, job.Platform, job.ChannelID, nil)
	if err != nil {
		return "", &AdapterError{
			Platform: models.PlatformInstagram,
			Kind:     ErrKindAuth,
			Message:  "load credentials",
			Err:      err,
		}
	}

	// Step 1: create the media container.
	containerReq := igContainerRequest{
		ImageURL:    imageURL,
		Caption:     composeText(job.Content, igCaptionLimit),
		AccessToken: account.AccessToken,
	}
	var container igIDResponse
	if err := a.api.postJSON(ctx, a.baseURL+"/"+job.ChannelID+"/media", nil, containerReq, &container); err != nil {
		return "", err
	}
	if container.ID == "" {
		return "", &AdapterError{
			Platform: models.PlatformInstagram,
			Kind:     ErrKindAdapter,
			Message:  "container creation returned no ID",
		}
	}

	// Step 2: publish the container.
	publishReq := igPublishRequest{
		CreationID:  container.ID,
		AccessToken: account.AccessToken,
	}
	var published igIDResponse
	if err := a.api.postJSON(ctx, a.baseURL+"/"+job.ChannelID+"/media_publish", nil, publishReq, &published); err != nil {
		return "", &AdapterError{
			Platform: models.PlatformInstagram,
			Kind:     ErrKindPartialPublish,
			Message:  fmt.Sprintf("media container %s created but not published; reconcile manually", container.ID),
			Err:      err,
		}
	}
	if published.ID == "" {
		return "", &AdapterError{
			Platform: models.PlatformInstagram,
			Kind:     ErrKindPartialPublish,
			Message:  fmt.Sprintf("media container %s publish returned no media ID; reconcile manually", container.ID),
		}
	}

	return published.ID, nil
}
