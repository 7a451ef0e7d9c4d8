// BookService - Book Reservations and Recommendations
// Copyright 2026 Marek Sosnicki (MarekSosnicki)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarekSosnicki/bookservice

// Package main is the entry point for the recommendations service.
//
// The service periodically pulls reservation histories and the book
// catalog from its two collaborators, folds them into recommendation
// coefficients, and serves the materialized recommendation sets over
// HTTP. Queries never hit a collaborator; they read the state the
// refresh scheduler last computed.
//
// # Application Architecture
//
// The process initializes components in the following order:
//
//  1. Configuration: layered loading via koanf (defaults, YAML, env)
//  2. Logging: zerolog, JSON by default
//  3. Collaborator clients: reservations and book repository, each
//     behind a circuit breaker and an optional outbound rate limit
//  4. Coefficients and engine: in-memory recommendation state
//  5. Supervisor tree: refresh scheduler and HTTP server under suture
//
// # Configuration
//
// Required environment variables:
//   - RESERVATIONS_URL: base URL of the reservations service
//   - REPOSITORY_URL: base URL of the book repository service
//
// Common optional variables:
//   - TICK_INTERVAL: scheduler tick period (default 10s)
//   - NO_OF_RECOMMENDATIONS: size cap per recommendation category
//   - HTTP_PORT: listen port (default 8080)
//   - LOG_LEVEL, LOG_FORMAT: logging controls
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the scheduler stops
// between ticks and the HTTP server drains in-flight requests.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarekSosnicki/bookservice/internal/api"
	"github.com/MarekSosnicki/bookservice/internal/bookservice"
	"github.com/MarekSosnicki/bookservice/internal/config"
	"github.com/MarekSosnicki/bookservice/internal/logging"
	"github.com/MarekSosnicki/bookservice/internal/recommend"
	"github.com/MarekSosnicki/bookservice/internal/supervisor"
	"github.com/MarekSosnicki/bookservice/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("reservations_url", cfg.Reservations.URL).
		Str("repository_url", cfg.Repository.URL).
		Dur("tick_interval", cfg.Scheduler.TickInterval).
		Int("no_of_recommendations", cfg.Recommend.NoOfRecommendations).
		Msg("Configuration loaded")

	// Collaborator clients, each behind a circuit breaker so a flapping
	// collaborator cannot stall whole refresh passes.
	reservationsClient := bookservice.NewReservationsClient(cfg.Reservations.URL, cfg.Reservations.Timeout)
	reservationsClient.SetRateLimit(cfg.Reservations.RateLimitRPS)
	repositoryClient := bookservice.NewRepositoryClient(cfg.Repository.URL, cfg.Repository.Timeout)
	repositoryClient.SetRateLimit(cfg.Repository.RateLimitRPS)

	historySource := bookservice.NewHistorySourceBreaker(reservationsClient)
	bookCatalog := bookservice.NewBookCatalogBreaker(repositoryClient)

	coefficients := recommend.NewCoefficientsStorage(logging.With().Str("component", "coefficients").Logger())
	engine := recommend.NewRecommendationsEngine(
		cfg.Recommend.NoOfRecommendations,
		logging.With().Str("component", "engine").Logger(),
	)

	scheduler := recommend.NewScheduler(
		recommend.SchedulerConfig{
			TickInterval:        cfg.Scheduler.TickInterval,
			SampledRefreshEvery: cfg.Scheduler.SampledRefreshEvery,
			CatalogRefreshEvery: cfg.Scheduler.CatalogRefreshEvery,
			SampleFraction:      cfg.Scheduler.SampleFraction,
		},
		coefficients,
		engine,
		historySource,
		bookCatalog,
		logging.With().Str("component", "scheduler").Logger(),
	)

	handler := api.NewHandler(engine, coefficients)
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		RateLimitDisabled: cfg.Server.RateLimitDisabled,
	})
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddEngineService(scheduler)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
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

	logging.Info().Msg("Service stopped gracefully")
}
