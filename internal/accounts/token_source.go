// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package accounts

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/syndicate/internal/models"
)

// RefreshFunc exchanges an expired account's refresh token for new
// credentials against the platform's token endpoint. It must not persist
// anything; TokenSource owns the write-back.
type RefreshFunc func(ctx context.Context, account *ChannelAccount) (*ChannelAccount, error)

// TokenSource hands out fresh credentials for a channel, refreshing expired
// tokens at most once per account at a time.
//
// Concurrent callers for the same (user, platform, channel) share one
// in-flight refresh via singleflight; the rotated token is written back to
// the store before any caller observes it.
type TokenSource struct {
	store Store
	group singleflight.Group
}

// NewTokenSource creates a TokenSource backed by the given account store.
func NewTokenSource(store Store) *TokenSource {
	return &TokenSource{store: store}
}

// Fresh returns non-expired credentials for the channel, invoking refresh
// when the stored access token has expired. Accounts without a refresh token
// are returned as-is; the platform call will surface the auth failure.
func (t *TokenSource) Fresh(ctx context.Context, userID string, platform models.Platform, channelID string, refresh RefreshFunc) (*ChannelAccount, error) {
	account, err := t.store.Get(ctx, userID, platform, channelID)
	if err != nil {
		return nil, err
	}

	if !account.Expired(time.Now()) || account.RefreshToken == "" || refresh == nil {
		return account, nil
	}

	key := userID + ":" + string(platform) + ":" + channelID
	result, err, _ := t.group.Do(key, func() (interface{}, error) {
		// Re-read inside the flight: a concurrent refresh may have already
		// rotated and persisted the token.
		current, err := t.store.Get(ctx, userID, platform, channelID)
		if err != nil {
			return nil, err
		}
		if !current.Expired(time.Now()) {
			return current, nil
		}

		rotated, err := refresh(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("refresh token for %s: %w", key, err)
		}
		if err := t.store.Put(ctx, rotated); err != nil {
			return nil, fmt.Errorf("persist rotated token for %s: %w", key, err)
		}
		return rotated, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*ChannelAccount), nil
}
