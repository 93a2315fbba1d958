// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

// Package config provides layered configuration loading for Syndicate
// using Koanf v2: built-in defaults, then an optional YAML config file,
// then environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Syndicate server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Platforms PlatformsConfig `koanf:"platforms"`
	Events    EventsConfig    `koanf:"events"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimitReqs/RateLimitWindow throttle inbound HTTP requests per IP.
	// This is transport protection, unrelated to the per-platform posting
	// rate limiter.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// DatabaseConfig holds BadgerDB settings for the job and account stores.
type DatabaseConfig struct {
	// Path is the on-disk Badger directory. Ignored when InMemory is true.
	Path string `koanf:"path"`

	// InMemory runs Badger without persistence. Test/dev only.
	InMemory bool `koanf:"in_memory"`

	// GCInterval is how often the value-log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval"`

	// GCDiscardRatio is passed to Badger's RunValueLogGC (0 < ratio < 1).
	GCDiscardRatio float64 `koanf:"gc_discard_ratio"`
}

// SchedulerConfig holds scheduler runner settings.
type SchedulerConfig struct {
	// Enabled controls whether the periodic sweep service runs.
	// The manual POST /scheduler/run trigger works regardless.
	Enabled bool `koanf:"enabled"`

	// Interval is how often the sweep service polls for due jobs.
	Interval time.Duration `koanf:"interval"`

	// BatchLimit is the maximum number of due jobs pulled per sweep.
	BatchLimit int `koanf:"batch_limit"`

	// PublishTimeout bounds a single adapter publish call. A timeout is
	// persisted as a failed job with error kind "timeout".
	PublishTimeout time.Duration `koanf:"publish_timeout"`

	// LeaseTimeout is how long a job may sit in processing before the
	// reclaim sweep considers it stuck.
	LeaseTimeout time.Duration `koanf:"lease_timeout"`
}

// PlatformPolicy overrides the posting policy for a single platform.
type PlatformPolicy struct {
	MaxPerDay          int `koanf:"max_per_day"`
	MinIntervalMinutes int `koanf:"min_interval_minutes"`
}

// RateLimitConfig holds per-platform posting policy overrides, keyed by
// platform name. Platforms without an override use the built-in table.
type RateLimitConfig struct {
	Overrides map[string]PlatformPolicy `koanf:"overrides"`
}

// PlatformsConfig holds app-level platform API credentials. Per-channel
// tokens live in the account store; these are the application's own
// identifiers.
type PlatformsConfig struct {
	// XClientID is the OAuth2 client ID used when refreshing X access tokens.
	XClientID string `koanf:"x_client_id"`
}

// EventsConfig holds the optional NATS job-lifecycle event publisher settings.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path is required unless database.in_memory is set")
	}
	if c.Database.GCDiscardRatio <= 0 || c.Database.GCDiscardRatio >= 1 {
		return fmt.Errorf("database.gc_discard_ratio must be in (0, 1), got %f", c.Database.GCDiscardRatio)
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive, got %s", c.Scheduler.Interval)
	}
	if c.Scheduler.BatchLimit <= 0 {
		return fmt.Errorf("scheduler.batch_limit must be positive, got %d", c.Scheduler.BatchLimit)
	}
	if c.Scheduler.PublishTimeout <= 0 {
		return fmt.Errorf("scheduler.publish_timeout must be positive, got %s", c.Scheduler.PublishTimeout)
	}
	for name, p := range c.RateLimit.Overrides {
		if p.MaxPerDay <= 0 {
			return fmt.Errorf("rate_limit.overrides.%s.max_per_day must be positive, got %d", name, p.MaxPerDay)
		}
		if p.MinIntervalMinutes < 0 {
			return fmt.Errorf("rate_limit.overrides.%s.min_interval_minutes must be non-negative, got %d", name, p.MinIntervalMinutes)
		}
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events.url is required when events.enabled is set")
	}
	return nil
}
