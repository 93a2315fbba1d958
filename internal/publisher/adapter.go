// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

// Package publisher turns normalized post content into live platform posts.
//
// One Adapter per platform implements the platform's publish sub-protocol
// (including multi-step flows like Instagram's container create-then-publish)
// and returns the platform's opaque post ID. Adapters are stateless with
// respect to scheduling: they trust the caller to have already passed
// rate-limit and eligibility checks.
//
// All adapters share:
//   - Credentials read per publish from the account store, with token
//     refresh serialized per account
//   - An outbound politeness throttle (golang.org/x/time/rate)
//   - A circuit breaker per platform at the registry level
//   - Typed *AdapterError failures with a machine-readable kind
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/syndicate/internal/metrics"
	"github.com/tomtom215/syndicate/internal/models"
)

// Error kinds for adapter failures. Persisted on failed jobs as
// models.JobError.Kind.
const (
	ErrKindAdapter        = "adapter"
	ErrKindAuth           = "auth"
	ErrKindTimeout        = "timeout"
	ErrKindNotImplemented = "not_implemented"
	ErrKindPlatformLimit  = "platform_rate_limited"
	ErrKindUnavailable    = "unavailable"
	ErrKindPartialPublish = "partial_publish"
)

// AdapterError is a typed publish failure.
//
// A multi-step publish that partially succeeded (e.g. a media container was
// created but never published) must use ErrKindPartialPublish and name the
// dangling platform-side state in Message so it can be reconciled manually;
// automatic rollback is out of scope.
type AdapterError struct {
	Platform models.Platform
	Kind     string
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s publish failed (%s): %s: %v", e.Platform, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s publish failed (%s): %s", e.Platform, e.Kind, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Adapter defines the interface for platform publishers.
type Adapter interface {
	// Platform returns the platform this adapter publishes to.
	Platform() models.Platform

	// Publish posts the job's content and returns the platform's opaque post
	// ID. Failures are always *AdapterError. Publish must be idempotent-safe
	// to retry at the job level; retries are driven externally, never looped
	// internally.
	Publish(ctx context.Context, job *models.Job) (string, error)
}

// breakerSettings configures the per-platform circuit breaker.
// Five consecutive failures open the circuit for a minute.
func breakerSettings(platform models.Platform) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "publish-" + string(platform),
		MaxRequests: 1,
		Interval:    2 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.BreakerTransitions.WithLabelValues(string(platform), to.String()).Inc()
		},
	}
}

// Registry dispatches publishes to per-platform adapters, each behind its own
// circuit breaker.
type Registry struct {
	adapters map[models.Platform]Adapter
	breakers map[models.Platform]*gobreaker.CircuitBreaker[string]
}

// NewRegistry creates a registry with the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[models.Platform]Adapter),
		breakers: make(map[models.Platform]*gobreaker.CircuitBreaker[string]),
	}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds an adapter to the registry, replacing any existing adapter
// for the same platform.
func (r *Registry) Register(a Adapter) {
	platform := a.Platform()
	r.adapters[platform] = a
	r.breakers[platform] = gobreaker.NewCircuitBreaker[string](breakerSettings(platform))
}

// Get retrieves an adapter by platform.
func (r *Registry) Get(platform models.Platform) (Adapter, bool) {
	a, ok := r.adapters[platform]
	return a, ok
}

// List returns all registered platforms.
func (r *Registry) List() []models.Platform {
	platforms := make([]models.Platform, 0, len(r.adapters))
	for p := range r.adapters {
		platforms = append(platforms, p)
	}
	return platforms
}

// Publish dispatches the job to its platform's adapter through the circuit
// breaker. Failures are always *AdapterError.
func (r *Registry) Publish(ctx context.Context, job *models.Job) (string, error) {
	adapter, ok := r.adapters[job.Platform]
	if !ok {
		return "", &AdapterError{
			Platform: job.Platform,
			Kind:     ErrKindNotImplemented,
			Message:  "no adapter registered for platform",
		}
	}

	start := time.Now()
	postID, err := r.breakers[job.Platform].Execute(func() (string, error) {
		return adapter.Publish(ctx, job)
	})
	metrics.PublishDuration.WithLabelValues(string(job.Platform)).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &AdapterError{
				Platform: job.Platform,
				Kind:     ErrKindUnavailable,
				Message:  "circuit breaker open after repeated failures",
				Err:      err,
			}
		}
		var adapterErr *AdapterError
		if errors.As(err, &adapterErr) {
			return "", adapterErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &AdapterError{
				Platform: job.Platform,
				Kind:     ErrKindTimeout,
				Message:  "publish timed out",
				Err:      err,
			}
		}
		return "", &AdapterError{
			Platform: job.Platform,
			Kind:     ErrKindAdapter,
			Message:  "publish failed",
			Err:      err,
		}
	}

	return postID, nil
}
