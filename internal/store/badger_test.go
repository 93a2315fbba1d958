// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/syndicate/internal/models"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := Open("", true)
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

func testJob(id string, status models.JobStatus, scheduledAt time.Time) *models.Job {
	now := scheduledAt
	return &models.Job{
		ID:          id,
		UserID:      "user-1",
		Platform:    models.PlatformX,
		ChannelID:   "chan-1",
		Mode:        models.ModeScheduled,
		Status:      status,
		Content:     models.PostContent{Title: "hello", Body: "world"},
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreateAndGetJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := testJob("job-1", models.StatusPending, time.Now())
	if err := s.CreateJobs(ctx, []*models.Job{job}); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	got, err := s.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.ID != job.ID || got.Platform != job.Platform || got.Status != models.StatusPending {
		t.Errorf("got job %+v, want %+v", got, job)
	}
	if got.Content.Title != "hello" {
		t.Errorf("content title = %q, want %q", got.Content.Title, "hello")
	}
}

func TestGetJobNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetJob(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetJob error = %v, want ErrJobNotFound", err)
	}
}

func TestCreateJobsEmptyBatch(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateJobs(context.Background(), nil); !errors.Is(err, ErrNoJobs) {
		t.Errorf("CreateJobs(nil) error = %v, want ErrNoJobs", err)
	}
}

func TestCreateJobsBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	batch := []*models.Job{
		testJob("a", models.StatusPending, now),
		testJob("b", models.StatusPending, now),
		testJob("c", models.StatusPending, now),
	}
	if err := s.CreateJobs(ctx, batch); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.GetJob(ctx, id); err != nil {
			t.Errorf("GetJob(%q): %v", id, err)
		}
	}
}

func TestListDueOrderAndCutoff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	// Insert out of order; ListDue must return in scheduledAt order.
	jobs := []*models.Job{
		testJob("late", models.StatusPending, now.Add(-1*time.Minute)),
		testJob("early", models.StatusPending, now.Add(-10*time.Minute)),
		testJob("future", models.StatusPending, now.Add(10*time.Minute)),
		testJob("mid", models.StatusPending, now.Add(-5*time.Minute)),
	}
	if err := s.CreateJobs(ctx, jobs); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	due, err := s.ListDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}

	want := []string{"early", "mid", "late"}
	if len(due) != len(want) {
		t.Fatalf("ListDue returned %d jobs, want %d", len(due), len(want))
	}
	for i, id := range want {
		if due[i].ID != id {
			t.Errorf("due[%d].ID = %q, want %q", i, due[i].ID, id)
		}
	}
}

func TestListDueIncludesExactBoundary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := s.CreateJobs(ctx, []*models.Job{testJob("exact", models.StatusPending, now)}); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	due, err := s.ListDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 1 || due[0].ID != "exact" {
		t.Errorf("job scheduled exactly at now must be due, got %d jobs", len(due))
	}
}

func TestListDueRespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	var jobs []*models.Job
	for i := 0; i < 5; i++ {
		jobs = append(jobs, testJob(fmt.Sprintf("j%d", i), models.StatusPending, now.Add(-time.Duration(i+1)*time.Minute)))
	}
	if err := s.CreateJobs(ctx, jobs); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	due, err := s.ListDue(ctx, now, 2)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 2 {
		t.Errorf("ListDue with limit 2 returned %d jobs", len(due))
	}
}

func TestUpdateJobMovesIndexes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	job := testJob("job-1", models.StatusPending, now.Add(-time.Minute))
	if err := s.CreateJobs(ctx, []*models.Job{job}); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	// Transition to posted: the due index entry must disappear and the
	// history index must pick the job up.
	executed := now
	job.Status = models.StatusPosted
	job.ExecutedAt = &executed
	job.PlatformPostID = "ext-123"
	job.UpdatedAt = now
	if err := s.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	due, err := s.ListDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("posted job still listed as due: %d jobs", len(due))
	}

	history, err := s.PostedSince(ctx, "user-1", models.PlatformX, "chan-1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("PostedSince: %v", err)
	}
	if len(history) != 1 || history[0].PlatformPostID != "ext-123" {
		t.Errorf("history = %d jobs, want the posted job", len(history))
	}
}

func TestUpdateJobMissing(t *testing.T) {
	s := newTestStore(t)

	job := testJob("ghost", models.StatusPending, time.Now())
	if err := s.UpdateJob(context.Background(), job); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("UpdateJob error = %v, want ErrJobNotFound", err)
	}
}

func TestPostedSinceFloorAndScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	post := func(id string, executedAt time.Time, channel string) *models.Job {
		j := testJob(id, models.StatusPosted, executedAt)
		j.ChannelID = channel
		j.ExecutedAt = &executedAt
		j.PlatformPostID = "p-" + id
		return j
	}

	jobs := []*models.Job{
		post("old", now.Add(-30*time.Hour), "chan-1"),
		post("recent", now.Add(-2*time.Hour), "chan-1"),
		post("newest", now.Add(-10*time.Minute), "chan-1"),
		post("other-channel", now.Add(-time.Hour), "chan-2"),
	}
	if err := s.CreateJobs(ctx, jobs); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	history, err := s.PostedSince(ctx, "user-1", models.PlatformX, "chan-1", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PostedSince: %v", err)
	}

	want := []string{"recent", "newest"}
	if len(history) != len(want) {
		t.Fatalf("history = %d jobs, want %d", len(history), len(want))
	}
	for i, id := range want {
		if history[i].ID != id {
			t.Errorf("history[%d].ID = %q, want %q", i, history[i].ID, id)
		}
	}
}

func TestListByUserNewestFirstAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	mk := func(id string, createdAt time.Time, status models.JobStatus) *models.Job {
		j := testJob(id, status, createdAt)
		j.CreatedAt = createdAt
		if status == models.StatusPosted {
			j.ExecutedAt = &createdAt
			j.PlatformPostID = "p-" + id
		}
		return j
	}

	jobs := []*models.Job{
		mk("first", now.Add(-3*time.Hour), models.StatusPending),
		mk("second", now.Add(-2*time.Hour), models.StatusPosted),
		mk("third", now.Add(-1*time.Hour), models.StatusPending),
	}
	if err := s.CreateJobs(ctx, jobs); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	all, err := s.ListByUser(ctx, "user-1", "", 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(all) != len(want) {
		t.Fatalf("ListByUser = %d jobs, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("all[%d].ID = %q, want %q", i, all[i].ID, id)
		}
	}

	pending, err := s.ListByUser(ctx, "user-1", models.StatusPending, 10)
	if err != nil {
		t.Fatalf("ListByUser(pending): %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending filter returned %d jobs, want 2", len(pending))
	}

	none, err := s.ListByUser(ctx, "nobody", "", 10)
	if err != nil {
		t.Fatalf("ListByUser(nobody): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("unknown user returned %d jobs", len(none))
	}
}

func TestProcessingOlderThan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	stuck := testJob("stuck", models.StatusProcessing, now.Add(-time.Hour))
	stuck.UpdatedAt = now.Add(-time.Hour)
	fresh := testJob("fresh", models.StatusProcessing, now)
	fresh.UpdatedAt = now.Add(-time.Minute)

	if err := s.CreateJobs(ctx, []*models.Job{stuck, fresh}); err != nil {
		t.Fatalf("CreateJobs: %v", err)
	}

	stale, err := s.ProcessingOlderThan(ctx, now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("ProcessingOlderThan: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != "stuck" {
		t.Errorf("stale = %d jobs, want only the stuck job", len(stale))
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
