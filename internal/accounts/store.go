// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

// Package accounts stores connected-channel credentials.
//
// OAuth token acquisition happens outside this system; whatever performs the
// OAuth dance writes the resulting tokens here, and adapters read them per
// publish. Token refresh for platforms that rotate tokens (e.g. X) goes
// through TokenSource, which serializes refresh per account so two concurrent
// jobs for the same channel cannot invalidate each other's rotated token.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/syndicate/internal/models"
)

// ErrAccountNotFound indicates no credentials exist for the channel.
var ErrAccountNotFound = errors.New("channel account not found")

// accountKeyPrefix namespaces account documents in Badger.
const accountKeyPrefix = "acct:"

// ChannelAccount holds the credentials for one connected (user, platform,
// channel) triple.
type ChannelAccount struct {
	UserID    string          `json:"user_id"`
	Platform  models.Platform `json:"platform"`
	ChannelID string          `json:"channel_id"`

	DisplayName string `json:"display_name,omitempty"`

	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the access token has expired at time now.
// Accounts without an expiry never expire.
func (a *ChannelAccount) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !now.Before(*a.ExpiresAt)
}

// Store defines account persistence operations.
type Store interface {
	// Get returns the account for one channel, or ErrAccountNotFound.
	Get(ctx context.Context, userID string, platform models.Platform, channelID string) (*ChannelAccount, error)

	// Put inserts or replaces an account document.
	Put(ctx context.Context, account *ChannelAccount) error
}

// BadgerStore implements Store using BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an existing Badger database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// accountKey builds the document key for one channel account.
func accountKey(userID string, platform models.Platform, channelID string) []byte {
	return []byte(accountKeyPrefix + userID + ":" + string(platform) + ":" + channelID)
}

// Get returns the account for one channel.
func (s *BadgerStore) Get(_ context.Context, userID string, platform models.Platform, channelID string) (*ChannelAccount, error) {
	var account ChannelAccount

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(userID, platform, channelID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		})
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Put inserts or replaces an account document.
func (s *BadgerStore) Put(_ context.Context, account *ChannelAccount) error {
	account.UpdatedAt = time.Now()

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(accountKey(account.UserID, account.Platform, account.ChannelID), data)
	})
}

var _ Store = (*BadgerStore)(nil)
