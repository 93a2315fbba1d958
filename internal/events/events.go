// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

// Package events publishes job lifecycle events to NATS.
//
// Events are fire-and-forget: a slow or unreachable broker never blocks or
// fails the job pipeline. When events are disabled the publisher is a no-op,
// so callers emit unconditionally.
package events

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/tomtom215/syndicate/internal/logging"
	"github.com/tomtom215/syndicate/internal/models"
)

// Event types.
const (
	TypeJobCreated  = "job.created"
	TypeJobDeferred = "job.deferred"
	TypeJobPosted   = "job.posted"
	TypeJobFailed   = "job.failed"
)

// JobEvent is the wire payload for a job lifecycle event.
type JobEvent struct {
	Type      string           `json:"type"`
	JobID     string           `json:"job_id"`
	UserID    string           `json:"user_id"`
	Platform  models.Platform  `json:"platform"`
	ChannelID string           `json:"channel_id"`
	Status    models.JobStatus `json:"status"`
	Reason    string           `json:"reason,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Publisher emits job lifecycle events.
type Publisher interface {
	// JobEvent publishes one lifecycle event. Never blocks on the broker.
	JobEvent(eventType string, job *models.Job, reason string)

	// Close drains the connection.
	Close()
}

// NoopPublisher discards all events. Used when events are disabled.
type NoopPublisher struct{}

// JobEvent discards the event.
func (NoopPublisher) JobEvent(string, *models.Job, string) {}

// Close does nothing.
func (NoopPublisher) Close() {}

// NATSPublisher publishes events to a NATS subject per platform:
// <prefix>.<platform>, e.g. syndicate.jobs.x with the default prefix.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSPublisher connects to NATS. The connection reconnects indefinitely
// in the background; a broker outage at startup is an error, a later outage
// only drops events.
func NewNATSPublisher(url, subjectPrefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("syndicate"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, prefix: subjectPrefix}, nil
}

// JobEvent publishes one lifecycle event. Marshal or publish failures are
// logged and dropped.
func (p *NATSPublisher) JobEvent(eventType string, job *models.Job, reason string) {
	event := JobEvent{
		Type:      eventType,
		JobID:     job.ID,
		UserID:    job.UserID,
		Platform:  job.Platform,
		ChannelID: job.ChannelID,
		Status:    job.Status,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logging.Error().Err(err).Str("type", eventType).Msg("Failed to marshal job event")
		return
	}

	subject := subjectFor(p.prefix, job.Platform)
	if err := p.conn.Publish(subject, data); err != nil {
		logging.Warn().Err(err).Str("subject", subject).Msg("Failed to publish job event")
	}
}

// subjectFor builds the per-platform subject: <prefix>.<platform>.
func subjectFor(prefix string, platform models.Platform) string {
	return fmt.Sprintf("%s.%s", prefix, platform)
}

// Close flushes and drains the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		logging.Warn().Err(err).Msg("NATS drain failed")
	}
}
