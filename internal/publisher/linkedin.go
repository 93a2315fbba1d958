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

// liMaxPostLength is LinkedIn's share commentary character limit.
const liMaxPostLength = 3000

// LinkedInAdapter publishes UGC posts via the LinkedIn v2 API.
// The author URN comes from content metadata ("author_urn") when present;
// otherwise the channel ID is treated as an organization ID.
type LinkedInAdapter struct {
	tokens  *accounts.TokenSource
	api     *apiClient
	baseURL string
}

// NewLinkedInAdapter creates a LinkedIn adapter.
func NewLinkedInAdapter(tokens *accounts.TokenSource) *LinkedInAdapter {
	return &LinkedInAdapter{
		tokens:  tokens,
		api:     newAPIClient(models.PlatformLinkedIn, 1, 2),
		baseURL: "https://api.linkedin.com",
	}
}

// Platform returns the platform identifier.
func (a *LinkedInAdapter) Platform() models.Platform {
	return models.PlatformLinkedIn
}

// liShareText is the text body of a UGC share.
type liShareText struct {
	Text string `json:"text"`
}

// liShareContent is the share content wrapper.
type liShareContent struct {
	ShareCommentary    liShareText `json:"shareCommentary"`
	ShareMediaCategory string      `json:"shareMediaCategory"`
}

// liSpecificContent keys share content by the UGC content type.
type liSpecificContent struct {
	ShareContent liShareContent `json:"com.linkedin.ugc.ShareContent"`
}

// liVisibility controls post visibility.
type liVisibility struct {
	Visibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

// liUGCPostRequest is the POST /v2/ugcPosts payload.
type liUGCPostRequest struct {
	Author          string            `json:"author"`
	LifecycleState  string            `json:"lifecycleState"`
	SpecificContent liSpecificContent `json:"specificContent"`
	Visibility      liVisibility      `json:"visibility"`
}

// liUGCPostResponse is the POST /v2/ugcPosts response.
type liUGCPostResponse struct {
	ID string `json:"id"`
}

// Publish creates a published UGC post for the job's content.
func (a *LinkedInAdapter) Publish(ctx context.Context, job *models.Job) (string, error) {
	account, err := a.tokens.Fresh(ctx, job.UserID, job.Platform, job.ChannelID, nil)
	if err != nil {
		return "", &AdapterError{
			Platform: models.PlatformLinkedIn,
			Kind:     ErrKindAuth,
			Message:  "load credentials",
			Err:      err,
		}
	}

	author := metaString(job.Content, "author_urn")
	if author == "" {
		author = "urn:li:organization:" + job.ChannelID
	}

	payload := liUGCPostRequest{
		Author:         author,
		LifecycleState: "PUBLISHED",
		SpecificContent: liSpecificContent{
			ShareContent: liShareContent{
				ShareCommentary:    liShareText{Text: composeText(job.Content, liMaxPostLength)},
				ShareMediaCategory: "NONE",
			},
		},
		Visibility: liVisibility{Visibility: "PUBLIC"},
	}

	headers := bearerHeader(account.AccessToken)
	headers["X-Restli-Protocol-Version"] = "2.0.0"

	var resp liUGCPostResponse
	if err := a.api.postJSON(ctx, a.baseURL+"/v2/ugcPosts", headers, payload, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &AdapterError{
			Platform: models.PlatformLinkedIn,
			Kind:     ErrKindAdapter,
			Message:  "response carried no post URN",
		}
	}

	return resp.ID, nil
}
