// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package api

import (
	"net/http"
	"time"
)

// healthStatus is the GET /api/v1/health payload.
type healthStatus struct {
	Status         string  `json:"status"`
	Version        string  `json:"version"`
	StoreConnected bool    `json:"store_connected"`
	Uptime         float64 `json:"uptime_seconds"`
}

// startTime anchors the uptime reading.
var startTime = time.Now()

// Health handles GET /api/v1/health: overall status including job store
// connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	storeConnected := h.store.Ping(r.Context()) == nil

	status := "healthy"
	if !storeConnected {
		status = "degraded"
	}

	respondSuccess(w, http.StatusOK, healthStatus{
		Status:         status,
		Version:        "1.0.0",
		StoreConnected: storeConnected,
		Uptime:         time.Since(startTime).Seconds(),
	})
}

// HealthLive handles GET /api/v1/health/live: Kubernetes-style liveness.
// Returns 200 whenever the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady handles GET /api/v1/health/ready: readiness requires the job
// store to answer.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeStoreError, "job store unavailable", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}
