// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

// errors.go - API error codes and shared envelope helpers.
package api

import (
	"time"

	"github.com/tomtom215/syndicate/internal/models"
)

// Machine-readable error codes returned in the APIError envelope.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeValidationFailed = "VALIDATION_ERROR"
	ErrCodeStoreError       = "STORE_ERROR"
	ErrCodeSchedulerError   = "SCHEDULER_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// metadataNow returns response metadata stamped with the current time.
func metadataNow() models.Metadata {
	return models.Metadata{Timestamp: time.Now()}
}
