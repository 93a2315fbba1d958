// Syndicate - Social Publishing Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syndicate

// Package main is the entry point for the Syndicate server.
//
// Syndicate accepts normalized multi-target post requests, persists them as
// jobs in BadgerDB, and executes due jobs against per-platform adapters while
// enforcing per-platform posting policies (daily caps and minimum spacing).
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, YAML file, and env vars (Koanf v2)
//  2. Storage: BadgerDB job store and channel-account store sharing one database
//  3. Rate limiter: per-platform posting policy evaluator
//  4. Adapter registry: one publisher per platform behind circuit breakers
//  5. Scheduler: job creator, sweep runner, and the periodic sweep service
//  6. Events (optional): NATS job-lifecycle event publisher
//  7. HTTP server: REST API plus health and Prometheus endpoints
//
// All long-running components run under a suture supervisor tree with
// structured restart logging.
//
// # Configuration
//
// Environment variables use the SYNDICATE_ prefix:
//
//	export SYNDICATE_SERVER_PORT=8574
//	export SYNDICATE_DATABASE_PATH=/data/syndicate
//	export SYNDICATE_SCHEDULER_INTERVAL=1m
//	export SYNDICATE_EVENTS_ENABLED=true
//	export SYNDICATE_EVENTS_URL=nats://nats:4222
//	./syndicate
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// connections, an in-flight sweep finishes, and the database closes last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/syndicate/internal/accounts"
	"github.com/tomtom215/syndicate/internal/api"
	"github.com/tomtom215/syndicate/internal/config"
	"github.com/tomtom215/syndicate/internal/events"
	"github.com/tomtom215/syndicate/internal/logging"
	"github.com/tomtom215/syndicate/internal/models"
	"github.com/tomtom215/syndicate/internal/publisher"
	"github.com/tomtom215/syndicate/internal/ratelimit"
	"github.com/tomtom215/syndicate/internal/scheduler"
	"github.com/tomtom215/syndicate/internal/store"
	"github.com/tomtom215/syndicate/internal/supervisor"
	"github.com/tomtom215/syndicate/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Starting Syndicate")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === STORAGE ===

	jobStore, err := store.Open(cfg.Database.Path, cfg.Database.InMemory)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer func() {
		if err := jobStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close job store")
		}
	}()

	accountStore := accounts.NewBadgerStore(jobStore.DB())
	tokens := accounts.NewTokenSource(accountStore)

	// === EVENTS ===

	var eventPub events.Publisher = events.NoopPublisher{}
	if cfg.Events.Enabled {
		natsPub, err := events.NewNATSPublisher(cfg.Events.URL, cfg.Events.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		defer natsPub.Close()
		eventPub = natsPub
		logging.Info().Str("url", cfg.Events.URL).Msg("NATS event publisher connected")
	}

	// === RATE LIMITER ===

	overrides := make(map[models.Platform]ratelimit.Policy, len(cfg.RateLimit.Overrides))
	for name, p := range cfg.RateLimit.Overrides {
		overrides[models.Platform(name)] = ratelimit.Policy{
			MaxPerDay:   p.MaxPerDay,
			MinInterval: time.Duration(p.MinIntervalMinutes) * time.Minute,
		}
	}
	limiter := ratelimit.New(jobStore, overrides)

	// === ADAPTER REGISTRY ===

	registry := publisher.NewRegistry(
		publisher.NewXAdapter(tokens, cfg.Platforms.XClientID),
		publisher.NewFacebookAdapter(tokens),
		publisher.NewInstagramAdapter(tokens),
		publisher.NewLinkedInAdapter(tokens),
		publisher.NewPinterestAdapter(tokens),
		publisher.NewYouTubeAdapter(),
	)

	// === SCHEDULER ===

	creator := scheduler.NewCreator(jobStore, eventPub)
	runner := scheduler.NewRunner(jobStore, limiter, registry, eventPub, scheduler.RunnerOptions{
		BatchLimit:     cfg.Scheduler.BatchLimit,
		PublishTimeout: cfg.Scheduler.PublishTimeout,
		LeaseTimeout:   cfg.Scheduler.LeaseTimeout,
	})
	immediate := scheduler.NewImmediatePublisher(registry, cfg.Scheduler.PublishTimeout)

	// === HTTP SERVER ===

	handler := api.NewHandler(creator, runner, immediate, jobStore)
	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	})
	router := api.NewRouter(handler, mw)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	if cfg.Scheduler.Enabled {
		sweeper := scheduler.NewService(runner, cfg.Scheduler.Interval)
		tree.AddSchedulerService(services.NewSchedulerService(sweeper))
		logging.Info().Dur("interval", cfg.Scheduler.Interval).Msg("Sweep service added to supervisor tree")
	} else {
		logging.Info().Msg("Periodic sweeps disabled; POST /api/v1/scheduler/run still works")
	}

	if !cfg.Database.InMemory {
		tree.AddSchedulerService(services.NewBadgerGCService(jobStore, cfg.Database.GCInterval, cfg.Database.GCDiscardRatio))
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === RUN ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
	return nil
}
