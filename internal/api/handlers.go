// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/syndicate/internal/models"
	"github.com/tomtom215/syndicate/internal/scheduler"
	"github.com/tomtom215/syndicate/internal/store"
)

// Handler holds the orchestrator components the HTTP surface drives.
type Handler struct {
	creator   *scheduler.Creator
	runner    *scheduler.Runner
	immediate *scheduler.ImmediatePublisher
	store     store.JobStore
}

// NewHandler creates the API handler.
func NewHandler(creator *scheduler.Creator, runner *scheduler.Runner, immediate *scheduler.ImmediatePublisher, jobStore store.JobStore) *Handler {
	return &Handler{
		creator:   creator,
		runner:    runner,
		immediate: immediate,
		store:     jobStore,
	}
}

// userID extracts the calling user's identity. Authentication is an upstream
// concern (gateway or reverse proxy); the orchestrator trusts the X-User-ID
// header it injects.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// CreatePost handles POST /api/v1/post: validate the request and materialize
// one pending job per target.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "X-User-ID header is required", nil)
		return
	}

	var req models.PostRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: metadataNow(),
			Error:    apiErr,
		})
		return
	}

	jobs, err := h.creator.CreateJobs(r.Context(), user, &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidationFailed, err.Error(), err)
		return
	}

	jobIDs := make([]string, len(jobs))
	for i, job := range jobs {
		jobIDs[i] = job.ID
	}

	respondSuccess(w, http.StatusAccepted, map[string]interface{}{
		"inserted_count": len(jobs),
		"job_ids":        jobIDs,
	})
}

// publishNowRequest is the POST /api/v1/post/now body. Post-now has no mode
// or scheduled time; it is always executed synchronously.
type publishNowRequest struct {
	Targets []models.PostTarget `json:"targets" validate:"required,min=1,dive"`
	Content models.PostContent  `json:"content"`
}

// PublishNow handles POST /api/v1/post/now: synchronous multi-target publish
// with per-target result isolation.
func (h *Handler) PublishNow(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "X-User-ID header is required", nil)
		return
	}

	var req publishNowRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status:   "error",
			Metadata: metadataNow(),
			Error:    apiErr,
		})
		return
	}

	results := h.immediate.PublishNow(r.Context(), user, req.Targets, req.Content)

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// schedulerRunRequest is the optional POST /api/v1/scheduler/run body. A zero
// or absent limit uses the configured batch limit.
type schedulerRunRequest struct {
	Limit int `json:"limit"`
}

// SchedulerRun handles POST /api/v1/scheduler/run: one manual sweep of due
// jobs. The periodic service and this trigger share the runner, so a manual
// run is indistinguishable from a timed one.
func (h *Handler) SchedulerRun(w http.ResponseWriter, r *http.Request) {
	var req schedulerRunRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body", err)
			return
		}
	}
	if req.Limit < 0 {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "limit must not be negative", nil)
		return
	}

	result, err := h.runner.RunDue(r.Context(), req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeSchedulerError, "sweep failed", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"processed": result.Scanned,
		"scanned":   result.Scanned,
		"posted":    result.Posted,
		"failed":    result.Failed,
		"deferred":  result.Deferred,
	})
}

// SchedulerReclaim handles POST /api/v1/scheduler/reclaim: revert jobs stuck
// in processing back to pending. Explicit operator action; see the runner for
// the double-post caveat.
func (h *Handler) SchedulerReclaim(w http.ResponseWriter, r *http.Request) {
	reclaimed, err := h.runner.ReclaimStale(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeSchedulerError, "reclaim failed", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"reclaimed": reclaimed,
	})
}

// GetJob handles GET /api/v1/jobs/{id}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound, "job not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeStoreError, "failed to load job", err)
		return
	}

	respondSuccess(w, http.StatusOK, job)
}

// ListJobs handles GET /api/v1/jobs?user_id=...&status=...&limit=...
// Jobs are returned newest first.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user_id")
	if user == "" {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "user_id query parameter is required", nil)
		return
	}

	status := models.JobStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.StatusPending, models.StatusProcessing, models.StatusPosted, models.StatusFailed:
	default:
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid status filter", nil)
		return
	}

	limit := getIntParam(r, "limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}

	jobs, err := h.store.ListByUser(r.Context(), user, status, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeStoreError, "failed to list jobs", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// Platforms handles GET /api/v1/platforms: the supported platform set.
func (h *Handler) Platforms(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"platforms": models.Platforms(),
	})
}
