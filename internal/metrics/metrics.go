// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the orchestrator:
// - Job creation and publish outcomes
// - Rate-limit deferrals
// - Sweep duration and batch sizes
// - API endpoint latency and throughput
// - Badger store operations

var (
	// Job Metrics
	JobsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syndicate_jobs_created_total",
			Help: "Total number of jobs created, by platform and mode",
		},
		[]string{"platform", "mode"},
	)

	PublishAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syndicate_publish_attempts_total",
			Help: "Total number of publish attempts, by platform and outcome",
		},
		[]string{"platform", "outcome"}, // "posted", "failed"
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "syndicate_publish_duration_seconds",
			Help:    "Duration of adapter publish calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"platform"},
	)

	RateLimitDeferrals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syndicate_rate_limit_deferrals_total",
			Help: "Total number of rate-limit deferrals, by platform and reason",
		},
		[]string{"platform", "reason"}, // "daily_cap", "interval"
	)

	// Scheduler Metrics
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "syndicate_sweep_duration_seconds",
			Help:    "Duration of scheduler sweeps in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	SweepBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "syndicate_sweep_batch_size",
			Help:    "Number of due jobs pulled per sweep",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	JobsReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "syndicate_jobs_reclaimed_total",
			Help: "Total number of stuck processing jobs reverted to pending",
		},
	)

	// Adapter circuit breaker state changes
	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syndicate_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions, by platform and new state",
		},
		[]string{"platform", "state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syndicate_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "syndicate_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Store Metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syndicate_store_operations_total",
			Help: "Total number of Badger store operations, by operation and result",
		},
		[]string{"operation", "result"},
	)
)

// RecordAPIRequest records an API request with its duration.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreOperation records a job store operation outcome.
func RecordStoreOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StoreOperations.WithLabelValues(operation, result).Inc()
}
