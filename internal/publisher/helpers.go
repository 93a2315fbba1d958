// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/syndicate/internal/models"
)

// apiClient is the shared outbound HTTP plumbing for adapters: a bounded
// client plus a politeness throttle so bursts of due jobs don't hammer a
// platform's API. The throttle is per adapter instance, not per channel;
// per-channel pacing is the rate limiter's job.
type apiClient struct {
	platform models.Platform
	client   *http.Client
	limiter  *rate.Limiter
}

// newAPIClient creates an apiClient allowing rps requests per second with the
// given burst.
func newAPIClient(platform models.Platform, rps rate.Limit, burst int) *apiClient {
	return &apiClient{
		platform: platform,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rps, burst),
	}
}

// postJSON POSTs a JSON payload and decodes the JSON response into out
// (skipped when out is nil). Errors are always *AdapterError classified from
// the transport failure or response status.
func (c *apiClient) postJSON(ctx context.Context, url string, headers map[string]string, payload, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return c.classify(err, 0, nil)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &AdapterError{
			Platform: c.platform,
			Kind:     ErrKindAdapter,
			Message:  "marshal request payload",
			Err:      err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &AdapterError{
			Platform: c.platform,
			Kind:     ErrKindAdapter,
			Message:  "build request",
			Err:      err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.classify(err, 0, nil)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return c.classify(err, resp.StatusCode, nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(nil, resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &AdapterError{
				Platform: c.platform,
				Kind:     ErrKindAdapter,
				Message:  "decode response",
				Err:      err,
			}
		}
	}

	return nil
}

// classify maps a transport error or HTTP status to a typed *AdapterError.
func (c *apiClient) classify(err error, status int, body []byte) *AdapterError {
	switch {
	case err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)):
		return &AdapterError{
			Platform: c.platform,
			Kind:     ErrKindTimeout,
			Message:  "request deadline exceeded",
			Err:      err,
		}
	case err != nil:
		return &AdapterError{
			Platform: c.platform,
			Kind:     ErrKindUnavailable,
			Message:  "request failed",
			Err:      err,
		}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AdapterError{
			Platform: c.platform,
			Kind:     ErrKindAuth,
			Message:  fmt.Sprintf("platform rejected credentials (HTTP %d): %s", status, snippet(body)),
		}
	case status == http.StatusTooManyRequests:
		return &AdapterError{
			Platform: c.platform,
			Kind:     ErrKindPlatformLimit,
			Message:  fmt.Sprintf("platform rate limit hit (HTTP %d)", status),
		}
	case status >= 500:
		return &AdapterError{
			Platform: c.platform,
			Kind:     ErrKindUnavailable,
			Message:  fmt.Sprintf("platform unavailable (HTTP %d)", status),
		}
	default:
		return &AdapterError{
			Platform: c.platform,
			Kind:     ErrKindAdapter,
			Message:  fmt.Sprintf("platform rejected request (HTTP %d): %s", status, snippet(body)),
		}
	}
}

// snippet returns a short, single-line view of a response body for error
// messages.
func snippet(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	return truncate(s, 256)
}

// composeText joins title, body, and hashtags into one post text, truncated
// to the platform's length limit (0 means no limit).
func composeText(content models.PostContent, maxLen int) string {
	var parts []string
	if content.Title != "" {
		parts = append(parts, content.Title)
	}
	if content.Body != "" {
		parts = append(parts, content.Body)
	}
	if len(content.Hashtags) > 0 {
		tags := make([]string, 0, len(content.Hashtags))
		for _, tag := range content.Hashtags {
			if tag == "" {
				continue
			}
			if !strings.HasPrefix(tag, "#") {
				tag = "#" + tag
			}
			tags = append(tags, tag)
		}
		if len(tags) > 0 {
			parts = append(parts, strings.Join(tags, " "))
		}
	}
	return truncate(strings.Join(parts, "\n\n"), maxLen)
}

// truncate shortens content to maxLen characters with ellipsis. Platform
// limits count characters, not bytes, so the cut lands on rune boundaries.
// maxLen <= 0 means no limit.
func truncate(content string, maxLen int) string {
	if maxLen <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// metaString extracts a string value from the content's open metadata map.
func metaString(content models.PostContent, key string) string {
	if content.Metadata == nil {
		return ""
	}
	if v, ok := content.Metadata[key].(string); ok {
		return v
	}
	return ""
}
