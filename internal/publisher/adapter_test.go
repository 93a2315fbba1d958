// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package publisher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/tomtom215/syndicate/internal/models"
)

// stubAdapter is a scriptable Adapter for registry tests.
type stubAdapter struct {
	platform models.Platform
	postID   string
	err      error
	calls    int
}

func (s *stubAdapter) Platform() models.Platform {
	return s.platform
}

func (s *stubAdapter) Publish(_ context.Context, _ *models.Job) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.postID, nil
}

func testJob(platform models.Platform) *models.Job {
	return &models.Job{
		ID:        "job-1",
		UserID:    "user-1",
		Platform:  platform,
		ChannelID: "chan-1",
		Mode:      models.ModeScheduled,
		Status:    models.StatusProcessing,
		Content: models.PostContent{
			Title: "Release notes",
			Body:  "v1.2 is out",
		},
	}
}

func TestRegistryDispatch(t *testing.T) {
	stub := &stubAdapter{platform: models.PlatformX, postID: "post-42"}
	r := NewRegistry(stub)

	postID, err := r.Publish(context.Background(), testJob(models.PlatformX))
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if postID != "post-42" {
		t.Errorf("postID = %q, want %q", postID, "post-42")
	}
	if stub.calls != 1 {
		t.Errorf("adapter called %d times, want 1", stub.calls)
	}
}

func TestRegistryUnregisteredPlatform(t *testing.T) {
	r := NewRegistry()

	_, err := r.Publish(context.Background(), testJob(models.PlatformLinkedIn))
	if err == nil {
		t.Fatal("expected error for unregistered platform")
	}

	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("error is %T, want *AdapterError", err)
	}
	if adapterErr.Kind != ErrKindNotImplemented {
		t.Errorf("Kind = %q, want %q", adapterErr.Kind, ErrKindNotImplemented)
	}
	if adapterErr.Platform != models.PlatformLinkedIn {
		t.Errorf("Platform = %q, want %q", adapterErr.Platform, models.PlatformLinkedIn)
	}
}

func TestRegistryAdapterErrorPassthrough(t *testing.T) {
	want := &AdapterError{
		Platform: models.PlatformFacebook,
		Kind:     ErrKindAuth,
		Message:  "token expired",
	}
	r := NewRegistry(&stubAdapter{platform: models.PlatformFacebook, err: want})

	_, err := r.Publish(context.Background(), testJob(models.PlatformFacebook))

	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("error is %T, want *AdapterError", err)
	}
	if adapterErr.Kind != ErrKindAuth {
		t.Errorf("Kind = %q, want %q", adapterErr.Kind, ErrKindAuth)
	}
	if adapterErr.Message != "token expired" {
		t.Errorf("Message = %q, want %q", adapterErr.Message, "token expired")
	}
}

func TestRegistryWrapsPlainError(t *testing.T) {
	r := NewRegistry(&stubAdapter{platform: models.PlatformInstagram, err: errors.New("boom")})

	_, err := r.Publish(context.Background(), testJob(models.PlatformInstagram))

	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("error is %T, want *AdapterError", err)
	}
	if adapterErr.Kind != ErrKindAdapter {
		t.Errorf("Kind = %q, want %q", adapterErr.Kind, ErrKindAdapter)
	}
}

func TestRegistryBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubAdapter{
		platform: models.PlatformPinterest,
		err:      &AdapterError{Platform: models.PlatformPinterest, Kind: ErrKindUnavailable, Message: "HTTP 503"},
	}
	r := NewRegistry(stub)
	job := testJob(models.PlatformPinterest)

	for i := 0; i < 5; i++ {
		if _, err := r.Publish(context.Background(), job); err == nil {
			t.Fatalf("attempt %d: expected failure", i+1)
		}
	}
	if stub.calls != 5 {
		t.Fatalf("adapter called %d times, want 5", stub.calls)
	}

	// Sixth attempt must be rejected by the open breaker without reaching
	// the adapter.
	_, err := r.Publish(context.Background(), job)
	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("error is %T, want *AdapterError", err)
	}
	if adapterErr.Kind != ErrKindUnavailable {
		t.Errorf("Kind = %q, want %q", adapterErr.Kind, ErrKindUnavailable)
	}
	if !strings.Contains(adapterErr.Message, "circuit breaker") {
		t.Errorf("Message = %q, want circuit breaker mention", adapterErr.Message)
	}
	if stub.calls != 5 {
		t.Errorf("adapter called %d times after breaker opened, want 5", stub.calls)
	}
}

func TestRegistryBreakersAreIndependent(t *testing.T) {
	failing := &stubAdapter{
		platform: models.PlatformX,
		err:      &AdapterError{Platform: models.PlatformX, Kind: ErrKindUnavailable, Message: "HTTP 503"},
	}
	healthy := &stubAdapter{platform: models.PlatformLinkedIn, postID: "li-1"}
	r := NewRegistry(failing, healthy)

	for i := 0; i < 6; i++ {
		r.Publish(context.Background(), testJob(models.PlatformX)) //nolint:errcheck
	}

	if _, err := r.Publish(context.Background(), testJob(models.PlatformLinkedIn)); err != nil {
		t.Errorf("healthy platform affected by another platform's breaker: %v", err)
	}
}

func TestRegistryGetAndList(t *testing.T) {
	r := NewRegistry(
		&stubAdapter{platform: models.PlatformX},
		&stubAdapter{platform: models.PlatformFacebook},
	)

	if _, ok := r.Get(models.PlatformX); !ok {
		t.Error("Get(x) = false, want true")
	}
	if _, ok := r.Get(models.PlatformYouTube); ok {
		t.Error("Get(youtube) = true, want false")
	}
	if got := len(r.List()); got != 2 {
		t.Errorf("List returned %d platforms, want 2", got)
	}
}

func TestYouTubeAdapterNotImplemented(t *testing.T) {
	a := NewYouTubeAdapter()

	if a.Platform() != models.PlatformYouTube {
		t.Errorf("Platform = %q, want %q", a.Platform(), models.PlatformYouTube)
	}

	_, err := a.Publish(context.Background(), testJob(models.PlatformYouTube))
	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("error is %T, want *AdapterError", err)
	}
	if adapterErr.Kind != ErrKindNotImplemented {
		t.Errorf("Kind = %q, want %q", adapterErr.Kind, ErrKindNotImplemented)
	}
}

func TestAdapterErrorFormatting(t *testing.T) {
	base := errors.New("connection refused")
	e := &AdapterError{
		Platform: models.PlatformX,
		Kind:     ErrKindUnavailable,
		Message:  "request failed",
		Err:      base,
	}

	msg := e.Error()
	for _, want := range []string{"x", "unavailable", "request failed", "connection refused"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if !errors.Is(e, base) {
		t.Error("errors.Is should see through AdapterError")
	}
}

func TestComposeText(t *testing.T) {
	tests := []struct {
		name    string
		content models.PostContent
		maxLen  int
		want    string
	}{
		{
			name: "title body hashtags",
			content: models.PostContent{
				Title:    "Launch day",
				Body:     "We shipped it.",
				Hashtags: []string{"golang", "#release"},
			},
			want: "Launch day\n\nWe shipped it.\n\n#golang #release",
		},
		{
			name:    "body only",
			content: models.PostContent{Body: "just the body"},
			want:    "just the body",
		},
		{
			name: "empty hashtags skipped",
			content: models.PostContent{
				Title:    "T",
				Hashtags: []string{"", ""},
			},
			want: "T",
		},
		{
			name:    "truncated to limit",
			content: models.PostContent{Body: strings.Repeat("a", 100)},
			maxLen:  10,
			want:    strings.Repeat("a", 7) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := composeText(tt.content, tt.maxLen); got != tt.want {
				t.Errorf("composeText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"short", 0, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is too long", 10, "this is..."},
		{"abc", 2, "ab"},
		// Multi-byte runes: limits count characters, and the cut must never
		// split a rune into invalid UTF-8.
		{"héllo wörld, this runs long", 10, "héllo w..."},
		{"日本語のテキストです", 5, "日本..."},
		{"日本語", 2, "日本"},
	}

	for _, tt := range tests {
		got := truncate(tt.in, tt.maxLen)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.maxLen)
		}
	}
}

func TestMetaString(t *testing.T) {
	content := models.PostContent{
		Metadata: map[string]interface{}{
			"board_id": "b-123",
			"count":    7,
		},
	}

	if got := metaString(content, "board_id"); got != "b-123" {
		t.Errorf("metaString(board_id) = %q, want %q", got, "b-123")
	}
	if got := metaString(content, "count"); got != "" {
		t.Errorf("metaString on non-string value = %q, want empty", got)
	}
	if got := metaString(content, "missing"); got != "" {
		t.Errorf("metaString on missing key = %q, want empty", got)
	}
	if got := metaString(models.PostContent{}, "board_id"); got != "" {
		t.Errorf("metaString on nil metadata = %q, want empty", got)
	}
}

func TestSnippet(t *testing.T) {
	body := []byte("  {\n  \"error\":   \"bad\"\n}  ")
	got := snippet(body)
	if strings.ContainsAny(got, "\n\t") {
		t.Errorf("snippet contains whitespace runs: %q", got)
	}

	long := []byte(strings.Repeat("x ", 300))
	if got := snippet(long); len(got) > 256 {
		t.Errorf("snippet length = %d, want <= 256", len(got))
	}
}

func TestClassify(t *testing.T) {
	c := newAPIClient(models.PlatformX, 10, 1)

	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"deadline", context.DeadlineExceeded, 0, ErrKindTimeout},
		{"canceled", context.Canceled, 0, ErrKindTimeout},
		{"transport", fmt.Errorf("dial: %w", errors.New("refused")), 0, ErrKindUnavailable},
		{"unauthorized", nil, 401, ErrKindAuth},
		{"forbidden", nil, 403, ErrKindAuth},
		{"rate limited", nil, 429, ErrKindPlatformLimit},
		{"server error", nil, 503, ErrKindUnavailable},
		{"bad request", nil, 400, ErrKindAdapter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.classify(tt.err, tt.status, nil)
			if got.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.want)
			}
			if got.Platform != models.PlatformX {
				t.Errorf("Platform = %q, want %q", got.Platform, models.PlatformX)
			}
		})
	}
}
