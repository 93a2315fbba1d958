// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/syndicate/internal/events"
	"github.com/tomtom215/syndicate/internal/models"
	"github.com/tomtom215/syndicate/internal/publisher"
	"github.com/tomtom215/syndicate/internal/ratelimit"
	"github.com/tomtom215/syndicate/internal/scheduler"
	"github.com/tomtom215/syndicate/internal/store"
)

// okAdapter publishes successfully with a fixed post ID.
type okAdapter struct {
	platform models.Platform
	postID   string
}

func (a *okAdapter) Platform() models.Platform { return a.platform }

func (a *okAdapter) Publish(context.Context, *models.Job) (string, error) {
	return a.postID, nil
}

// envelope mirrors the response wrapper for assertions.
type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error,omitempty"`
}

// newTestServer wires the full HTTP surface over an in-memory store with
// stub platform adapters.
func newTestServer(t *testing.T) (http.Handler, *store.BadgerStore) {
	t.Helper()

	s, err := store.Open("", true)
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	registry := publisher.NewRegistry(
		&okAdapter{platform: models.PlatformX, postID: "x-post-1"},
		&okAdapter{platform: models.PlatformFacebook, postID: "fb-post-1"},
	)

	// Open policies so sweep tests exercise the publish path, not deferrals.
	overrides := make(map[models.Platform]ratelimit.Policy)
	for _, p := range models.Platforms() {
		overrides[p] = ratelimit.Policy{MaxPerDay: 1000, MinInterval: 0}
	}
	limiter := ratelimit.New(s, overrides)

	eventPub := events.NoopPublisher{}
	creator := scheduler.NewCreator(s, eventPub)
	runner := scheduler.NewRunner(s, limiter, registry, eventPub, scheduler.RunnerOptions{})
	immediate := scheduler.NewImmediatePublisher(registry, time.Second)

	handler := NewHandler(creator, runner, immediate, s)
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
	})
	return NewRouter(handler, mw).Setup(), s
}

func doRequest(t *testing.T, h http.Handler, method, path, user string, body interface{}) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, &env
}

func validPostRequest() map[string]interface{} {
	return map[string]interface{}{
		"mode": "scheduled",
		"targets": []map[string]string{
			{"platform": "x", "channel_id": "chan-x"},
			{"platform": "facebook", "channel_id": "chan-fb"},
		},
		"content":      map[string]interface{}{"title": "Hello", "body": "World"},
		"scheduled_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}
}

func TestCreatePostAndGetJob(t *testing.T) {
	h, _ := newTestServer(t)

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/post", "user-1", validPostRequest())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if env.Status != "success" {
		t.Errorf("envelope status = %q, want success", env.Status)
	}

	var data struct {
		InsertedCount int      `json:"inserted_count"`
		JobIDs        []string `json:"job_ids"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.InsertedCount != 2 || len(data.JobIDs) != 2 {
		t.Fatalf("data = %+v, want 2 jobs", data)
	}

	rec, env = doRequest(t, h, http.MethodGet, "/api/v1/jobs/"+data.JobIDs[0], "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GetJob status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var job models.Job
	if err := json.Unmarshal(env.Data, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.ID != data.JobIDs[0] {
		t.Errorf("job ID = %q, want %q", job.ID, data.JobIDs[0])
	}
	if job.Status != models.StatusPending {
		t.Errorf("job status = %q, want pending", job.Status)
	}
	if job.UserID != "user-1" {
		t.Errorf("job user = %q, want user-1", job.UserID)
	}
}

func TestCreatePostRequiresUserHeader(t *testing.T) {
	h, _ := newTestServer(t)

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/post", "", validPostRequest())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeBadRequest {
		t.Errorf("error = %+v, want code %q", env.Error, ErrCodeBadRequest)
	}
}

func TestCreatePostRejectsInvalidJSON(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/post", strings.NewReader("{not json"))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreatePostValidation(t *testing.T) {
	h, _ := newTestServer(t)

	tests := []struct {
		name   string
		mutate func(body map[string]interface{})
	}{
		{
			name: "unknown platform",
			mutate: func(b map[string]interface{}) {
				b["targets"] = []map[string]string{{"platform": "myspace", "channel_id": "c1"}}
			},
		},
		{
			name: "missing targets",
			mutate: func(b map[string]interface{}) {
				delete(b, "targets")
			},
		},
		{
			name: "unknown mode",
			mutate: func(b map[string]interface{}) {
				b["mode"] = "someday"
			},
		},
		{
			name: "missing channel",
			mutate: func(b map[string]interface{}) {
				b["targets"] = []map[string]string{{"platform": "x"}}
			},
		},
		{
			name: "scheduled without timestamp",
			mutate: func(b map[string]interface{}) {
				delete(b, "scheduled_at")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validPostRequest()
			tt.mutate(body)

			rec, env := doRequest(t, h, http.MethodPost, "/api/v1/post", "user-1", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if env.Error == nil {
				t.Error("expected error payload")
			}
		})
	}
}

func TestPublishNowEndpoint(t *testing.T) {
	h, s := newTestServer(t)

	body := map[string]interface{}{
		"targets": []map[string]string{
			{"platform": "x", "channel_id": "chan-x"},
			{"platform": "pinterest", "channel_id": "board-1"}, // no adapter registered
		},
		"content": map[string]interface{}{"body": "right now"},
	}

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/post/now", "user-1", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var data struct {
		Results []models.PublishResult `json:"results"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(data.Results))
	}
	if data.Results[0].Status != models.StatusPosted || data.Results[0].PlatformPostID != "x-post-1" {
		t.Errorf("x result = %+v, want posted with x-post-1", data.Results[0])
	}
	if data.Results[1].Status != models.StatusFailed || data.Results[1].Error == nil {
		t.Errorf("pinterest result = %+v, want failed with error", data.Results[1])
	}

	// Post-now never persists a job.
	jobs, err := s.ListByUser(context.Background(), "user-1", "", 100)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("found %d persisted jobs after post-now, want 0", len(jobs))
	}
}

func TestGetJobNotFound(t *testing.T) {
	h, _ := newTestServer(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/jobs/nope", "user-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want code %q", env.Error, ErrCodeNotFound)
	}
}

func TestListJobs(t *testing.T) {
	h, _ := newTestServer(t)

	// Two pending jobs for user-1.
	rec, _ := doRequest(t, h, http.MethodPost, "/api/v1/post", "user-1", validPostRequest())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("seed create failed: %d", rec.Code)
	}

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/jobs/?user_id=user-1", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var data struct {
		Jobs  []*models.Job `json:"jobs"`
		Count int           `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Count != 2 || len(data.Jobs) != 2 {
		t.Errorf("count = %d (%d jobs), want 2", data.Count, len(data.Jobs))
	}

	// Status filter excluding everything.
	rec, env = doRequest(t, h, http.MethodGet, "/api/v1/jobs/?user_id=user-1&status=posted", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered status = %d, want 200", rec.Code)
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Count != 0 {
		t.Errorf("filtered count = %d, want 0", data.Count)
	}
}

func TestListJobsRequiresUserID(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/jobs/", "user-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListJobsRejectsUnknownStatus(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := doRequest(t, h, http.MethodGet, "/api/v1/jobs/?user_id=user-1&status=limbo", "user-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSchedulerRunEndpoint(t *testing.T) {
	h, s := newTestServer(t)
	ctx := context.Background()

	// One due pending job.
	due := time.Now().Add(-time.Minute).UTC()
	job := &models.Job{
		ID:          "job-due",
		UserID:      "user-1",
		Platform:    models.PlatformX,
		ChannelID:   "chan-x",
		Mode:        models.ModeScheduled,
		Status:      models.StatusPending,
		Content:     models.PostContent{Body: "sweep me"},
		ScheduledAt: due,
		CreatedAt:   due,
		UpdatedAt:   due,
	}
	if err := s.CreateJobs(ctx, []*models.Job{job}); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/scheduler/run", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Processed int `json:"processed"`
		Scanned   int `json:"scanned"`
		Posted    int `json:"posted"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode sweep result: %v", err)
	}
	if result.Processed != 1 || result.Scanned != 1 || result.Posted != 1 {
		t.Errorf("result = %+v, want processed=1 scanned=1 posted=1", result)
	}

	got, err := s.GetJob(ctx, "job-due")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != models.StatusPosted {
		t.Errorf("job status = %q, want posted", got.Status)
	}
}

func TestSchedulerRunEndpointHonorsLimit(t *testing.T) {
	h, s := newTestServer(t)
	ctx := context.Background()

	due := time.Now().Add(-time.Minute).UTC()
	var jobs []*models.Job
	for i := 0; i < 3; i++ {
		jobs = append(jobs, &models.Job{
			ID:          fmt.Sprintf("job-due-%d", i),
			UserID:      "user-1",
			Platform:    models.PlatformX,
			ChannelID:   "chan-x",
			Mode:        models.ModeScheduled,
			Status:      models.StatusPending,
			Content:     models.PostContent{Body: "sweep me"},
			ScheduledAt: due.Add(time.Duration(i) * time.Second),
			CreatedAt:   due,
			UpdatedAt:   due,
		})
	}
	if err := s.CreateJobs(ctx, jobs); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/scheduler/run", "", map[string]int{"limit": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Processed int `json:"processed"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode sweep result: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("processed = %d, want 1 (limit honored)", result.Processed)
	}

	// Without a limit the sweep drains the remaining jobs.
	_, env = doRequest(t, h, http.MethodPost, "/api/v1/scheduler/run", "", nil)
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode sweep result: %v", err)
	}
	if result.Processed != 2 {
		t.Errorf("processed = %d, want 2", result.Processed)
	}

	rec, env = doRequest(t, h, http.MethodPost, "/api/v1/scheduler/run", "", map[string]int{"limit": -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative limit: status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeBadRequest {
		t.Errorf("negative limit error = %+v, want BAD_REQUEST", env.Error)
	}
}

func TestSchedulerReclaimEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec, env := doRequest(t, h, http.MethodPost, "/api/v1/scheduler/reclaim", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var data struct {
		Reclaimed int `json:"reclaimed"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Reclaimed != 0 {
		t.Errorf("reclaimed = %d, want 0", data.Reclaimed)
	}
}

func TestPlatformsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec, env := doRequest(t, h, http.MethodGet, "/api/v1/platforms", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var data struct {
		Platforms []models.Platform `json:"platforms"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Platforms) != 6 {
		t.Errorf("got %d platforms, want 6", len(data.Platforms))
	}
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestServer(t)

	for _, path := range []string{"/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready"} {
		rec, _ := doRequest(t, h, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestRequestIDEchoed(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/platforms", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-abc" {
		t.Errorf("X-Request-ID = %q, want req-abc", got)
	}

	// A request without an ID gets one generated.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/platforms", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not generated")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec, _ := doRequest(t, h, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
