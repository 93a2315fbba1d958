// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package publisher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/syndicate/internal/accounts"
	"github.com/tomtom215/syndicate/internal/models"
)

// xMaxPostLength is X's post character limit.
const xMaxPostLength = 280

// XAdapter publishes to X via the v2 API.
//
// X rotates refresh tokens on every token refresh, so refresh goes through
// the TokenSource's per-account singleflight; a rotated token is persisted
// before any publish uses it.
type XAdapter struct {
	tokens   *accounts.TokenSource
	api      *apiClient
	baseURL  string
	clientID string
}

// NewXAdapter creates an X adapter. clientID is the OAuth client used for
// refresh-token exchange; empty disables refresh.
func NewXAdapter(tokens *accounts.TokenSource, clientID string) *XAdapter {
	return &XAdapter{
		tokens:   tokens,
		api:      newAPIClient(models.PlatformX, 1, 3),
		baseURL:  "https://api.x.com",
		clientID: clientID,
	}
}

// Platform returns the platform identifier.
func (a *XAdapter) Platform() models.Platform {
	return models.PlatformX
}

// xTweetRequest is the POST /2/tweets payload.
type xTweetRequest struct {
	Text string `json:"text"`
}

// xTweetResponse is the POST /2/tweets response.
type xTweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// xTokenResponse is the OAuth2 token endpoint response.
type xTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Publish posts the job's content as a tweet.
func (a *XAdapter) Publish(ctx context.Context, job *models.Job) (string, error) {
	account, err := a.tokens.Fresh(ctx, job.UserID, job.Platform, job.ChannelID, a.refresh)
	if err != nil {
		return "", &AdapterError{
			Platform: models.PlatformX,
			Kind:     ErrKindAuth,
			Message:  "load credentials",
			Err:      err,
		}
	}

	payload := xTweetRequest{Text: composeText(job.Content, xMaxPostLength)}

	var resp xTweetResponse
	if err := a.api.postJSON(ctx, a.baseURL+"/2/tweets", bearerHeader(account.AccessToken), payload, &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", &AdapterError{
			Platform: models.PlatformX,
			Kind:     ErrKindAdapter,
			Message:  "response carried no tweet ID",
		}
	}

	return resp.Data.ID, nil
}

// refresh exchanges the account's refresh token for new credentials.
// The token endpoint takes form-encoded input, unlike the rest of the v2 API.
func (a *XAdapter) refresh(ctx context.Context, account *accounts.ChannelAccount) (*accounts.ChannelAccount, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {account.RefreshToken},
		"client_id":     {a.clientID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/2/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.api.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, a.api.classify(nil, resp.StatusCode, body)
	}

	var token xTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, err
	}

	rotated := *account
	rotated.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		rotated.RefreshToken = token.RefreshToken
	}
	if token.ExpiresIn > 0 {
		expires := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
		rotated.ExpiresAt = &expires
	}
	return &rotated, nil
}

// bearerHeader builds an Authorization header for a bearer token.
func bearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
